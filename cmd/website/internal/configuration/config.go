package configuration

import "github.com/adampresley/configinator"

type Config struct {
	AdminPassword          string `flag:"adminpassword" env:"ADMIN_PASSWORD" default:"" description:"Password for the settings administration pages. Admin login is disabled when empty"`
	ApiKey                 string `flag:"apikey" env:"CAT_API_KEY" default:"" description:"Default Cat API key used until the settings form is saved"`
	ApiTimeoutSeconds      int    `flag:"apitimeout" env:"CAT_API_TIMEOUT_SECONDS" default:"5" description:"Timeout in seconds for each Cat API request"`
	ApiURL                 string `flag:"apiurl" env:"CAT_API_URL" default:"http://thecatapi.com/api/" description:"Default Cat API base URL used until the settings form is saved"`
	AwsAccessKeyId         string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsBucket              string `flag:"awsbucket" env:"AWS_BUCKET" default:"catgallery" description:"S3 bucket"`
	AwsEndpointUrl         string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion              string `flag:"awsregion" env:"AWS_REGION" default:"us-central-1" description:"AWS region"`
	AwsSecretAccessKey     string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	CookieSecret           string `flag:"cookiesecret" env:"COOKIE_SECRET" default:"password" description:"Secret for encoding cookies"`
	DownloadExpirationDays int    `flag:"dle" env:"DOWNLOAD_EXPIRATION_DAYS" default:"7" description:"Number of days before favourites archives are removed"`
	DownloadsFolder        string `flag:"dlf" env:"DOWNLOADS_FOLDER" default:"favourites" description:"S3 folder for favourites archives"`
	DSN                    string `flag:"dsn" env:"DSN" default:"file:./data/catgallery.db" description:"Data source name"`
	GalleryCount           int    `flag:"gallerycount" env:"GALLERY_COUNT" default:"6" description:"Number of cats shown on the gallery page"`
	Host                   string `flag:"host" env:"HOST" default:"localhost:8081" description:"The address and port to bind the HTTP server to"`
	LogLevel               string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxDownloadWorkers     int    `flag:"mdw" env:"MAX_DOWNLOAD_WORKERS" default:"5" description:"Maximum number of concurrent image downloads when building an archive"`
	ThumbnailSize          int    `flag:"thumbsize" env:"THUMBNAIL_SIZE" default:"300" description:"Longest edge, in pixels, of generated thumbnails"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
