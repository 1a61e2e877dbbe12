package nbenv

import "time"

// Default configuration values. These constants are exported so callers can
// reference the defaults when building custom configurations relative to
// them.
const (
	// DefaultWorkDir is the root of the agent's workspace on the
	// persistent volume. Everything the bootstrap produces (conda prefix,
	// status record, journal, lock) lives under it, so it survives
	// instance stop/start cycles.
	DefaultWorkDir = "/home/ec2-user/SageMaker/.nbenv-workspace"

	// DefaultInstallerURL pins the Miniconda installer release.
	DefaultInstallerURL = "https://repo.anaconda.com/miniconda/Miniconda3-py39_23.11.0-2-Linux-x86_64.sh"

	// DefaultService is the init-system name of the notebook server
	// service restarted after kernel registration.
	DefaultService = "jupyter-server"

	// DefaultServicePort is the local port the notebook server listens on,
	// probed after a restart when probing is enabled.
	DefaultServicePort = 8888

	// DefaultKernelsRoot is the Jupyter kernels directory kernelspecs are
	// written under.
	DefaultKernelsRoot = "/home/ec2-user/.local/share/jupyter/kernels"

	// DefaultSetupLogPath receives the detached bootstrap worker's output.
	// It lives outside the workspace so it is readable even when the
	// persistent volume fails to mount.
	DefaultSetupLogPath = "/var/log/nbenv-setup.log"

	// DefaultAgentPath is where the agent binary is installed on the
	// instance; the default detach command and the rendered lifecycle
	// hooks both invoke it.
	DefaultAgentPath = "/usr/local/bin/nbenv"

	// DefaultProbeInterval is the polling interval for the post-restart
	// service probe.
	DefaultProbeInterval = 500 * time.Millisecond

	// DefaultProbeTimeout is the total budget for the post-restart service
	// probe. Notebook servers routinely take tens of seconds to come back
	// with many kernels registered.
	DefaultProbeTimeout = 2 * time.Minute

	// DefaultInstanceType is the notebook instance size class in the
	// rendered provisioning template.
	DefaultInstanceType = "ml.g4dn.xlarge"

	// DefaultVolumeSizeGB is the persistent volume size in the rendered
	// provisioning template.
	DefaultVolumeSizeGB = 50

	// DefaultStackName prefixes named resources in the rendered
	// provisioning template.
	DefaultStackName = "gpu-notebook"

	// DefaultInstanceName is the rendered template's default notebook
	// instance display name.
	DefaultInstanceName = "gpu-notebook-instance"

	// DefaultRepository is the rendered template's default source
	// repository URL.
	DefaultRepository = "https://github.com/aws-samples/amazon-sagemaker-notebook-instance-lifecycle-config-samples"
)

// DefaultEnvs returns the environments provisioned when none are
// configured: a single TensorFlow environment matching the stock
// data-science setup.
func DefaultEnvs() []EnvSpec {
	return []EnvSpec{
		{
			Name:   "tensorflow2_p39",
			Python: "3.9",
			Packages: []string{
				"tensorflow==2.11.0",
				"torch==1.13.1",
				"ipykernel==6.25.2",
				"boto3==1.28.57",
				"pandas==2.0.3",
				"scikit-learn==1.3.1",
			},
		},
	}
}
