package globals

import (
	_ "embed"
	"strings"
)

const DEVOPSFOX_USER_AGENT = "devopsfox"
const DEVOPSFOX_LOG_FILE_DIR_NAME = ".devopsfox"
const DEVOPSFOX_LOG_FILE_NAME = "devopsfox-error.log"
const DEVOPSFOX_BASE_DIRECTORY = "devopsfox-output"
const DEVOPSFOX_CONFIG_FILE_NAME = ".devopsfox"

var DEVOPSFOX_VERSION string = strings.TrimSpace(version)

//go:embed VERSION
var version string
