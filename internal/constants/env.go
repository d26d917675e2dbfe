package constants

// Environment variables set by the Azure Pipelines agent. Task inputs are
// exposed as INPUT_<NAME>, predefined variables with dots replaced by
// underscores.
const (
	EnvInputOrganization   = "INPUT_ORGANIZATION"
	EnvInputScreenshotDir  = "INPUT_SCREENSHOTFOLDER"
	EnvInputOSType         = "INPUT_OSTYPE"
	EnvInputRotateAngle    = "INPUT_SCREENSHOTROTATEANGLE"
	EnvTeamProject         = "SYSTEM_TEAMPROJECT"
	EnvBuildID             = "BUILD_BUILDID"
	EnvSystemAccessToken   = "SYSTEM_ACCESSTOKEN"
	EnvEndpointAccessToken = "ENDPOINT_AUTH_PARAMETER_SYSTEMVSSCONNECTION_ACCESSTOKEN"
	EnvNoColor             = "NO_COLOR"
)
