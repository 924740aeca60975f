package globals

// Module names
const DEVOPS_INVENTORY_MODULE_NAME = "inventory"
const DEVOPS_CHECK_MODULE_NAME = "check"
const DEVOPS_CREDENTIALS_MODULE_NAME = "credentials"
const DEVOPS_EXPORT_MODULE_NAME = "export"

const DEVOPS_OUTPUT_DIRECTORY = "devops"

// Service hosts. Each resource family is served from its own host.
const DEVOPS_CORE_HOST = "dev.azure.com"
const DEVOPS_RELEASE_HOST = "vsrm.dev.azure.com"
const DEVOPS_EXTENSIONS_HOST = "extmgmt.dev.azure.com"
const DEVOPS_FEEDS_HOST = "feeds.dev.azure.com"

const DEVOPS_DEFAULT_API_VERSION = "7.1"

// Resource types still in preview pin their own version. Everything else
// uses the configured default API version.
const DEVOPS_DASHBOARDS_API_VERSION = "7.1-preview.3"
const DEVOPS_FEEDS_API_VERSION = "7.1-preview.1"
const DEVOPS_EXTENSIONS_API_VERSION = "7.1-preview.1"
const DEVOPS_SERVICE_ENDPOINTS_API_VERSION = "7.1-preview.4"
const DEVOPS_RELEASES_API_VERSION = "7.1-preview.4"
const DEVOPS_VARIABLE_GROUPS_API_VERSION = "7.1-preview.2"
const DEVOPS_TEAMS_API_VERSION = "7.1-preview.3"
const DEVOPS_TEAM_MEMBERS_API_VERSION = "7.1-preview.1"

// Platform limit on work item ids per detail request.
const DEVOPS_WORK_ITEM_BATCH_SIZE = 200

const DEVOPS_DEFAULT_WORK_ITEM_LIMIT = 100
const DEVOPS_DEFAULT_PULL_REQUEST_TOP = 100
const DEVOPS_MARKDOWN_PULL_REQUEST_ROWS = 30

// Environment variable the Azure DevOps CLI extension reads the PAT from.
const DEVOPS_PAT_ENV_VAR = "AZURE_DEVOPS_EXT_PAT"

const DEVOPS_ARTIFACT_TIMESTAMP_FORMAT = "20060102-150405"
