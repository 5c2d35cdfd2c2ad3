// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/homewired/pamauth/host"
	"github.com/homewired/pamauth/util"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	version = "0.1.0"

	// Supported store backends.
	storeBackendLevelDB = "leveldb"
	storeBackendMySQL   = "mysql"
)

var (
	// General application defaults
	appName            = "pamauthd"
	defaultDataDirname = "data"
	defaultLogDirname  = "logs"
	defaultLogLevel    = "info"

	defaultConfigFilename = fmt.Sprintf("%v.conf", appName)
	defaultLogFilename    = fmt.Sprintf("%v.log", appName)

	defaultHomeDir    = appDataDir(appName)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)

	// HTTP server defaults
	defaultHTTPSCertFilename       = "https.cert"
	defaultHTTPSKeyFilename        = "https.key"
	defaultSessionMaxAge     int64 = 60 * 60 * 24    // 1 day in seconds
	defaultReadTimeout       int64 = 5               // In seconds
	defaultWriteTimeout      int64 = 60              // In seconds
	defaultReqBodySizeLimit  int64 = 3 * 1024 * 1024 // 3 MiB
	defaultListen                  = "4443"

	defaultHTTPSCert = filepath.Join(defaultHomeDir, defaultHTTPSCertFilename)
	defaultHTTPSKey  = filepath.Join(defaultHomeDir, defaultHTTPSKeyFilename)

	// Database settings
	defaultStoreBackend = storeBackendLevelDB
	defaultMySQLHost    = "localhost:3306"

	// Environmental variables that are used to pass in config settings
	envDBPass = "DBPASS"
)

// config defines the configuration options for pamauthd.
//
// See the loadConfig function for details on the configuration load
// process.
type config struct {
	// General application settings
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	HomeDir     string `short:"A" long:"appdata" description:"Path to application home directory"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	// HTTP server settings
	Listen           string `long:"listen" description:"Port that the http server will listen on"`
	HTTPSCert        string `long:"httpscert" description:"HTTPS certificate file path"`
	HTTPSKey         string `long:"httpskey" description:"HTTPS certificate key path"`
	SessionMaxAge    int64  `long:"sessionmaxage" description:"Max age of a session in seconds"`
	ReadTimeout      int64  `long:"readtimeout" description:"Max duration in seconds that is spent reading the request headers and body"`
	WriteTimeout     int64  `long:"writetimeout" description:"Max duration in seconds that a request connection is kept open"`
	ReqBodySizeLimit int64  `long:"reqbodysizelimit" description:"Max number of bytes allowed in a request body submitted by a client"`

	// Database settings
	StoreBackend string `long:"store" description:"Storage backend for user records {leveldb, mysql}"`
	DBHost       string `long:"dbhost" description:"MySQL database host"`
	DBPass       string // Provided in env variable "DBPASS"

	// Plugin settings
	RawPluginSettings []string `long:"pluginsetting" description:"Plugin setting formatted as '[settingName],[settingValue]'"`

	// Cooked options ready for use
	AppName        string
	Version        string
	PluginSettings []host.Setting
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings.
//  2. Pre-parse the command line to check for an alternative config file.
//  3. Load the configuration file, overwriting defaults with any specified
//     options.
//  4. Parse the CLI options and overwrite/add any specified options.
//
// The above results in the server functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take
// precedence.
//
// This function initializes the log rotator. It is the responsibility of
// the caller to close the log rotator.
func loadConfig() (*config, error) {
	// Setup the default configuration
	cfg := &config{
		// General application defaults
		ShowVersion: false,
		HomeDir:     defaultHomeDir,
		ConfigFile:  defaultConfigFile,
		DataDir:     defaultDataDir,
		LogDir:      defaultLogDir,
		DebugLevel:  defaultLogLevel,

		// HTTP server defaults
		Listen:           defaultListen,
		HTTPSCert:        defaultHTTPSCert,
		HTTPSKey:         defaultHTTPSKey,
		SessionMaxAge:    defaultSessionMaxAge,
		ReadTimeout:      defaultReadTimeout,
		WriteTimeout:     defaultWriteTimeout,
		ReqBodySizeLimit: defaultReqBodySizeLimit,

		// Database defaults
		StoreBackend: defaultStoreBackend,
		DBHost:       defaultMySQLHost,

		// Cooked options ready for use
		AppName: appName,
		Version: version,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) {
			if e.Type != flags.ErrHelp {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", cfg.AppName,
			cfg.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Update the home directory if specified. Since the home directory is
	// updated, other file paths need to be updated to reflect the updated
	// home directory.
	if preCfg.HomeDir != "" {
		cfg.HomeDir = util.CleanAndExpandPath(preCfg.HomeDir)

		// Update the other path config settings with the newly
		// provided application home directory.
		if preCfg.DataDir == defaultDataDir {
			cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
		} else {
			cfg.DataDir = preCfg.DataDir
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		} else {
			cfg.LogDir = preCfg.LogDir
		}
		if preCfg.ConfigFile == defaultConfigFile {
			cfg.ConfigFile = filepath.Join(cfg.HomeDir,
				defaultConfigFilename)
		} else {
			cfg.ConfigFile = preCfg.ConfigFile
		}
		if preCfg.HTTPSCert == defaultHTTPSCert {
			cfg.HTTPSCert = filepath.Join(cfg.HomeDir,
				defaultHTTPSCertFilename)
		} else {
			cfg.HTTPSCert = preCfg.HTTPSCert
		}
		if preCfg.HTTPSKey == defaultHTTPSKey {
			cfg.HTTPSKey = filepath.Join(cfg.HomeDir,
				defaultHTTPSKeyFilename)
		} else {
			cfg.HTTPSKey = preCfg.HTTPSKey
		}
	}

	// Create a default config file when one does not
	// exist and the user did not specify an override.
	if preCfg.ConfigFile == defaultConfigFile &&
		!util.FileExists(preCfg.ConfigFile) {
		err := createDefaultConfigFile(preCfg.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating "+
				"a default config file: %v\n", err)
		}
	}

	// Clean the config file path so that we can load it
	cfg.ConfigFile = util.CleanAndExpandPath(cfg.ConfigFile)

	// Load additional settings from the config file
	var configFileError error
	parser := flags.NewParser(cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cfg.ConfigFile)
	if err != nil {
		var e *os.PathError
		if !errors.As(err, &e) {
			return nil, fmt.Errorf("parse config file: %v", err)
		}
		// There is something wrong with the config file path.
		// A config file may not exist. This will be logged as
		// a warning once the logger has been initialized.
		configFileError = err
	}

	// Parse command line options again to ensure they take
	// precedence. If unknown args are found, a warning will
	// be logged once the logger has been initialized.
	unknownArgs, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	// Check for the show log level. This is used to list supported
	// subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}

	// Clean and expand all file paths
	cfg.HomeDir = util.CleanAndExpandPath(cfg.HomeDir)
	cfg.DataDir = util.CleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = util.CleanAndExpandPath(cfg.LogDir)
	cfg.ConfigFile = util.CleanAndExpandPath(cfg.ConfigFile)
	cfg.HTTPSCert = util.CleanAndExpandPath(cfg.HTTPSCert)
	cfg.HTTPSKey = util.CleanAndExpandPath(cfg.HTTPSKey)

	// Create the app directory if it doesn't already exist
	err = os.MkdirAll(cfg.HomeDir, 0700)
	if err != nil {
		return nil, fmt.Errorf("failed to create app dir: %v", err)
	}

	// Initialize log rotation. After the log rotation has
	// been initialized, the logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Perform various validation and setup
	err = setupDBSettings(cfg)
	if err != nil {
		return nil, err
	}
	cfg.PluginSettings, err = parsePluginSettings(cfg.RawPluginSettings)
	if err != nil {
		return nil, err
	}

	// Log any config warnings
	if configFileError != nil {
		log.Warnf("Failed to parse config file: %v", configFileError)
	}
	if len(unknownArgs) != 0 {
		args := strings.Join(unknownArgs, ", ")
		log.Warnf("Unknown arguments found: %v", args)
	}

	return cfg, nil
}

// setupDBSettings performs any required validation and setup for the
// database config settings.
func setupDBSettings(cfg *config) error {
	switch cfg.StoreBackend {
	case storeBackendLevelDB:
		// The leveldb backend does not require any settings.
		return nil

	case storeBackendMySQL:
		// Pull the password from the env variable
		cfg.DBPass = os.Getenv(envDBPass)
		if cfg.DBPass == "" {
			return fmt.Errorf("dbpass not found; you must provide "+
				"the database password for the %v user in the env "+
				"variable %v", cfg.AppName, envDBPass)
		}
		return nil

	default:
		return fmt.Errorf("invalid store backend '%v'", cfg.StoreBackend)
	}
}

// parsePluginSettings parses the raw plugin settings and converts them to
// host settings. A raw setting is formatted as
// '[settingName],[settingValue]'.
func parsePluginSettings(rawSettings []string) ([]host.Setting, error) {
	settings := make([]host.Setting, 0, len(rawSettings))
	for _, raw := range rawSettings {
		parsed := strings.SplitN(raw, ",", 2)
		if len(parsed) != 2 {
			return nil, fmt.Errorf("invalid plugin setting '%v'; a "+
				"setting must be formatted as "+
				"'[settingName],[settingValue]'", raw)
		}
		settings = append(settings, host.Setting{
			Name:  parsed[0],
			Value: parsed[1],
		})
	}
	return settings, nil
}

// appDataDir returns an operating system specific directory to be used for
// storing application data.
func appDataDir(appName string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the current directory.
		return "."
	}
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(homeDir, appName)
	case "darwin":
		capitalized := strings.ToUpper(appName[:1]) + appName[1:]
		return filepath.Join(homeDir, "Library",
			"Application Support", capitalized)
	default:
		return filepath.Join(homeDir, "."+appName)
	}
}
