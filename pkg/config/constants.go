package config

const EnvPrefix = "STOKAGE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "STOKAGE_DB_DSN"
	EnvDBHost = "STOKAGE_DB_HOST"
	EnvDBUser = "STOKAGE_DB_USER"
	EnvDBName = "STOKAGE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
