package pipelines

import (
	"os"
	"strconv"
	"strings"
)

// EnvSystemDebug is set to "true" when the pipeline runs with diagnostics.
const EnvSystemDebug = "SYSTEM_DEBUG"

// EnvTFBuild is set by the agent on every pipeline job.
const EnvTFBuild = "TF_BUILD"

// InPipeline reports whether the process runs under the Azure Pipelines agent.
func InPipeline() bool {
	return isTrue(os.Getenv(EnvTFBuild))
}

// DebugEnabled reports whether System.Debug is set for the run.
func DebugEnabled() bool {
	return isTrue(os.Getenv(EnvSystemDebug))
}

func isTrue(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
