package template

import (
	"errors"
	"fmt"
)

// Logical resource names within the rendered document.
const (
	resourceRole            = "ExecutionRole"
	resourceKey             = "EncryptionKey"
	resourceKeyAlias        = "EncryptionKeyAlias"
	resourceLifecycleConfig = "LifecycleConfig"
	resourceNotebook        = "NotebookInstance"
)

// Config parameterizes the rendered provisioning template.
type Config struct {
	// StackName prefixes named resources such as the KMS alias.
	StackName string
	// InstanceNameDefault is the default notebook instance display name.
	InstanceNameDefault string
	// RepositoryDefault is the default source repository URL cloned onto
	// the instance.
	RepositoryDefault string
	// InstanceType is the notebook instance size class.
	InstanceType string
	// VolumeSizeGB is the persistent volume size.
	VolumeSizeGB int
	// Scripts parameterize the lifecycle hook shims.
	Scripts ScriptParams
}

// Validate checks all Config invariants, joining every violation.
func (c Config) Validate() error {
	var errs []error

	if c.StackName == "" {
		errs = append(errs, errors.New("stack name must not be empty"))
	}
	if c.InstanceNameDefault == "" {
		errs = append(errs, errors.New("instance name default must not be empty"))
	}
	if c.RepositoryDefault == "" {
		errs = append(errs, errors.New("repository default must not be empty"))
	}
	if c.InstanceType == "" {
		errs = append(errs, errors.New("instance type must not be empty"))
	}
	if c.VolumeSizeGB <= 0 {
		errs = append(errs, fmt.Errorf("volume size must be greater than 0, got %d", c.VolumeSizeGB))
	}
	if c.Scripts.AgentPath == "" {
		errs = append(errs, errors.New("agent path must not be empty"))
	}
	if c.Scripts.SetupLogPath == "" {
		errs = append(errs, errors.New("setup log path must not be empty"))
	}

	return errors.Join(errs...)
}

// Render builds the full provisioning document.
func Render(cfg Config) (Document, error) {
	if err := cfg.Validate(); err != nil {
		return Document{}, fmt.Errorf("invalid template config: %w", err)
	}

	onCreate, err := OnCreateScript(cfg.Scripts)
	if err != nil {
		return Document{}, err
	}
	onStart, err := OnStartScript(cfg.Scripts)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "GPU notebook instance with a managed data-science environment",
		Parameters: map[string]Parameter{
			"NotebookInstanceName": {
				Type:        "String",
				Default:     cfg.InstanceNameDefault,
				Description: "Display name of the notebook instance",
			},
			"DefaultCodeRepository": {
				Type:        "String",
				Default:     cfg.RepositoryDefault,
				Description: "Source repository cloned onto the instance",
			},
		},
		Resources: map[string]Resource{
			resourceRole: {
				Type: "AWS::IAM::Role",
				Properties: RoleProperties{
					AssumeRolePolicyDocument: PolicyDocument{
						Version: "2012-10-17",
						Statement: []StatementEntry{{
							Effect:    "Allow",
							Principal: map[string]any{"Service": "sagemaker.amazonaws.com"},
							Action:    "sts:AssumeRole",
						}},
					},
					ManagedPolicyArns: []string{
						"arn:aws:iam::aws:policy/AmazonSageMakerFullAccess",
						"arn:aws:iam::aws:policy/AmazonS3ReadOnlyAccess",
					},
				},
			},
			resourceKey: {
				Type: "AWS::KMS::Key",
				Properties: KeyProperties{
					Description:       "Encrypts the notebook instance volume",
					EnableKeyRotation: true,
					KeyPolicy: PolicyDocument{
						Version: "2012-10-17",
						Statement: []StatementEntry{{
							Effect:    "Allow",
							Principal: map[string]any{"AWS": Sub{Sub: "arn:aws:iam::${AWS::AccountId}:root"}},
							Action:    "kms:*",
							Resource:  "*",
						}},
					},
				},
			},
			resourceKeyAlias: {
				Type: "AWS::KMS::Alias",
				Properties: AliasProperties{
					AliasName:   "alias/" + cfg.StackName,
					TargetKeyID: Ref{Ref: resourceKey},
				},
			},
			resourceLifecycleConfig: {
				Type: "AWS::SageMaker::NotebookInstanceLifecycleConfig",
				Properties: LifecycleConfigProperties{
					OnCreate: []LifecycleHook{{Content: EncodeScript(onCreate)}},
					OnStart:  []LifecycleHook{{Content: EncodeScript(onStart)}},
				},
			},
			resourceNotebook: {
				Type: "AWS::SageMaker::NotebookInstance",
				Properties: NotebookInstanceProperties{
					NotebookInstanceName:  Ref{Ref: "NotebookInstanceName"},
					InstanceType:          cfg.InstanceType,
					VolumeSizeInGB:        cfg.VolumeSizeGB,
					RoleArn:               NewGetAtt(resourceRole, "Arn"),
					KmsKeyID:              Ref{Ref: resourceKey},
					LifecycleConfigName:   NewGetAtt(resourceLifecycleConfig, "NotebookInstanceLifecycleConfigName"),
					DefaultCodeRepository: Ref{Ref: "DefaultCodeRepository"},
				},
			},
		},
		Outputs: map[string]Output{
			"NotebookInstanceName": {
				Description: "Provisioned notebook instance",
				Value:       Ref{Ref: resourceNotebook},
			},
			"ExecutionRoleArn": {
				Description: "Execution role assumed by the notebook service",
				Value:       NewGetAtt(resourceRole, "Arn"),
			},
			"EncryptionKeyId": {
				Description: "KMS key encrypting the volume",
				Value:       Ref{Ref: resourceKey},
			},
		},
	}

	return doc, nil
}
