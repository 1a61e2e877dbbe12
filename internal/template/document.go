package template

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Ref is a CloudFormation !Ref-style reference, marshaled as {"Ref": name}.
type Ref struct {
	Ref string `yaml:"Ref"`
}

// GetAtt is a CloudFormation Fn::GetAtt expression.
type GetAtt struct {
	Attr []string `yaml:"Fn::GetAtt,flow"`
}

// NewGetAtt builds a Fn::GetAtt for a resource attribute.
func NewGetAtt(resource, attribute string) GetAtt {
	return GetAtt{Attr: []string{resource, attribute}}
}

// Sub is a CloudFormation Fn::Sub expression.
type Sub struct {
	Sub string `yaml:"Fn::Sub"`
}

// Parameter is a template input parameter.
type Parameter struct {
	Type        string `yaml:"Type"`
	Default     string `yaml:"Default,omitempty"`
	Description string `yaml:"Description,omitempty"`
}

// Resource is one template resource: a type plus its properties document.
type Resource struct {
	Type       string `yaml:"Type"`
	Properties any    `yaml:"Properties"`
}

// Output is a template output value.
type Output struct {
	Description string `yaml:"Description,omitempty"`
	Value       any    `yaml:"Value"`
}

// Document is the full CloudFormation template.
type Document struct {
	AWSTemplateFormatVersion string               `yaml:"AWSTemplateFormatVersion"`
	Description              string               `yaml:"Description,omitempty"`
	Parameters               map[string]Parameter `yaml:"Parameters,omitempty"`
	Resources                map[string]Resource  `yaml:"Resources"`
	Outputs                  map[string]Output    `yaml:"Outputs,omitempty"`
}

// Marshal renders the document as YAML.
func (d Document) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	return data, nil
}

// StatementEntry is one IAM policy statement.
type StatementEntry struct {
	Effect    string         `yaml:"Effect"`
	Principal map[string]any `yaml:"Principal,omitempty"`
	Action    any            `yaml:"Action"`
	Resource  any            `yaml:"Resource,omitempty"`
}

// PolicyDocument is an IAM policy document.
type PolicyDocument struct {
	Version   string           `yaml:"Version"`
	Statement []StatementEntry `yaml:"Statement"`
}

// RoleProperties are the properties of an IAM role resource.
type RoleProperties struct {
	AssumeRolePolicyDocument PolicyDocument `yaml:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []string       `yaml:"ManagedPolicyArns,omitempty"`
}

// KeyProperties are the properties of a KMS key resource.
type KeyProperties struct {
	Description       string         `yaml:"Description,omitempty"`
	EnableKeyRotation bool           `yaml:"EnableKeyRotation"`
	KeyPolicy         PolicyDocument `yaml:"KeyPolicy"`
}

// AliasProperties are the properties of a KMS alias resource.
type AliasProperties struct {
	AliasName   string `yaml:"AliasName"`
	TargetKeyID Ref    `yaml:"TargetKeyId"`
}

// LifecycleHook is one lifecycle configuration hook entry carrying a
// base64-encoded script.
type LifecycleHook struct {
	Content string `yaml:"Content"`
}

// LifecycleConfigProperties are the properties of a notebook lifecycle
// configuration resource.
type LifecycleConfigProperties struct {
	NotebookInstanceLifecycleConfigName string          `yaml:"NotebookInstanceLifecycleConfigName,omitempty"`
	OnCreate                            []LifecycleHook `yaml:"OnCreate"`
	OnStart                             []LifecycleHook `yaml:"OnStart"`
}

// NotebookInstanceProperties are the properties of the notebook instance
// resource.
type NotebookInstanceProperties struct {
	NotebookInstanceName  Ref    `yaml:"NotebookInstanceName"`
	InstanceType          string `yaml:"InstanceType"`
	VolumeSizeInGB        int    `yaml:"VolumeSizeInGB"`
	RoleArn               GetAtt `yaml:"RoleArn"`
	KmsKeyID              Ref    `yaml:"KmsKeyId"`
	LifecycleConfigName   GetAtt `yaml:"LifecycleConfigName"`
	DefaultCodeRepository Ref    `yaml:"DefaultCodeRepository"`
}
