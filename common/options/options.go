// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package options implements command-line options and configuration that
// are shared by all of the tools.
package options

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"gopkg.in/yaml.v2"
)

// Defaults used when neither flags, the config file nor the environment
// provide a value.
const (
	DefaultURI               = "mongodb://localhost:27017"
	DefaultAssertionDatabase = "assertionservice"
	DefaultUserDatabase      = "userservice"
	DefaultMemberDatabase    = "memberservice"
	DefaultIDLength          = 18
	DefaultConnectTimeout    = 5
)

// Environment variables, in the order they are consulted.
var (
	URIEnvVars               = []string{"MONGO_URI", "MONGO_DB"}
	AssertionDatabaseEnvVars = []string{"MONGO_DATABASE", "DATABASE"}
	UserDatabaseEnvVars      = []string{"USER_DATABASE"}
	MemberDatabaseEnvVars    = []string{"MEMBER_DATABASE"}
	LogFileEnvVars           = []string{"LOG_FILE"}
)

const uriPasswordWarning = "WARNING: On some systems, a password provided directly in a connection string " +
	"using --mongo-uri may be visible to system status programs such as `ps` that may be " +
	"invoked by other users. Consider using the MONGO_URI environment variable or the " +
	"--config option to specify a configuration file with the connection string."

// ToolOptions encompasses all of the options that are reused across tools:
// "help", "version", verbosity, the connection string and the resolved
// configuration.
type ToolOptions struct {

	// The name of the tool
	AppName string

	// The version of the tool
	VersionStr string

	// The git commit reference of the tool
	GitCommit string

	// Sub-option types
	*General
	*Verbosity
	*URI

	// Config is the resolved configuration after ParseArgs.
	Config Config

	// Getenv looks up environment variables. Tests replace it.
	Getenv func(string) string

	parser *flags.Parser
}

// General holds generic options.
type General struct {
	Help       bool   `long:"help" description:"print usage"`
	Version    bool   `long:"version" description:"print the tool version and exit"`
	ConfigPath string `long:"config" value-name:"<filename>" description:"path to a YAML configuration file"`
}

// Verbosity holds verbosity-related options.
type Verbosity struct {
	SetVerbosity    func(string) `short:"v" long:"verbose" value-name:"<level>" description:"more detailed log output (include multiple times for more verbosity, e.g. -vvvvv, or specify a numeric value, e.g. --verbose=N)" optional:"true" optional-value:""`
	Quiet           bool         `long:"quiet" description:"hide all log output"`
	VLevel          int          `no-flag:"true"`
	VerbosityParsed bool         `no-flag:"true"`
}

func (v Verbosity) Level() int {
	return v.VLevel
}

func (v Verbosity) IsQuiet() bool {
	return v.Quiet
}

// URI holds the connection string option.
type URI struct {
	ConnectionString string `long:"mongo-uri" value-name:"<mongodb-uri>" description:"MongoDB URI (overrides env)"`

	ConnString connstring.ConnString
}

// Databases names the databases the tools read and patch.
type Databases struct {
	Assertion string `yaml:"assertion"`
	User      string `yaml:"user"`
	Member    string `yaml:"member"`
}

// Config is the configuration resolved from the config file, the
// environment and the defaults.
type Config struct {
	URI            string    `yaml:"uri"`
	Databases      Databases `yaml:"databases"`
	LogFile        string    `yaml:"logFile"`
	IDLength       int       `yaml:"idLength"`
	ConnectTimeout int       `yaml:"connectTimeout"`
}

// Timeout returns the connect and server selection timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// ExtraOptions is implemented by the option groups specific to one tool.
type ExtraOptions interface {
	// Name specifying what type of options these are
	Name() string
}

func parseVal(val string) int {
	idx := strings.Index(val, "=")
	ret, err := strconv.Atoi(val[idx+1:])
	if err != nil {
		panic(fmt.Errorf("value was not a valid integer: %v", err))
	}
	return ret
}

// New returns tool options for the named tool. logFile is the tool's
// default log file name.
func New(appName, versionStr, gitCommit, usageStr, logFile string) *ToolOptions {
	opts := &ToolOptions{
		AppName:    appName,
		VersionStr: versionStr,
		GitCommit:  gitCommit,

		General:   &General{},
		Verbosity: &Verbosity{},
		URI:       &URI{},
		Config:    Config{LogFile: logFile},
		Getenv:    os.Getenv,
		parser: flags.NewNamedParser(
			fmt.Sprintf("%v %v", appName, usageStr), flags.None),
	}

	// Called when -v or --verbose is parsed
	opts.SetVerbosity = func(val string) {
		// Reset verbosity level when we call ParseArgs again and see the verbosity flag
		if opts.VLevel != 0 && opts.VerbosityParsed {
			opts.VerbosityParsed = false
			opts.VLevel = 0
		}

		if i, err := strconv.Atoi(val); err == nil {
			opts.VLevel = opts.VLevel + i // -v=N or --verbose=N
		} else if matched, _ := regexp.MatchString(`^v+$`, val); matched {
			opts.VLevel = opts.VLevel + len(val) + 1 // Handles the -vvv cases
		} else if matched, _ := regexp.MatchString(`^v+=[0-9]$`, val); matched {
			opts.VLevel = parseVal(val) // I.e. -vv=3
		} else if val == "" {
			opts.VLevel = opts.VLevel + 1 // Increment for every occurrence of flag
		} else {
			panic(fmt.Errorf("invalid verbosity value given: %q", val))
		}
	}

	if _, err := opts.parser.AddGroup("general options", "", opts.General); err != nil {
		panic(fmt.Errorf("couldn't register general options: %v", err))
	}
	if _, err := opts.parser.AddGroup("verbosity options", "", opts.Verbosity); err != nil {
		panic(fmt.Errorf("couldn't register verbosity options: %v", err))
	}
	if _, err := opts.parser.AddGroup("uri options", "", opts.URI); err != nil {
		panic(fmt.Errorf("couldn't register URI options: %v", err))
	}
	return opts
}

// AddOptions registers an additional options group to this instance.
func (opts *ToolOptions) AddOptions(extraOpts ExtraOptions) {
	_, err := opts.parser.AddGroup(extraOpts.Name()+" options", "", extraOpts)
	if err != nil {
		panic(fmt.Sprintf("error setting command line options for %v: %v",
			extraOpts.Name(), err))
	}
}

// PrintHelp prints the usage message for the tool to stdout. Returns whether
// or not the help flag is specified.
func (opts *ToolOptions) PrintHelp(force bool) bool {
	if opts.Help || force {
		opts.parser.WriteHelp(os.Stdout)
	}
	return opts.Help
}

// PrintVersion prints the tool version to stdout. Returns whether or not the
// version flag is specified.
func (opts *ToolOptions) PrintVersion() bool {
	if opts.Version {
		fmt.Printf("%v version: %v\n", opts.AppName, opts.VersionStr)
		fmt.Printf("git version: %v\n", opts.GitCommit)
		fmt.Printf("Go version: %v\n", runtime.Version())
		fmt.Printf("   os: %v\n", runtime.GOOS)
		fmt.Printf("   arch: %v\n", runtime.GOARCH)
		fmt.Printf("   compiler: %v\n", runtime.Compiler)
	}
	return opts.Version
}

// ParseArgs parses the command line, then the config file named by --config,
// then fills whatever is still unset from the environment and the defaults.
// Command-line values win over the config file, which wins over the
// environment. Returns any extra args not accounted for by parsing.
func (opts *ToolOptions) ParseArgs(args []string) ([]string, error) {
	extra, err := opts.parser.ParseArgs(args)
	if err != nil {
		return []string{}, err
	}

	// Set VerbosityParsed flag to make sure we reset verbosity level when we call ParseArgs again
	if opts.VLevel != 0 && !opts.VerbosityParsed {
		opts.VerbosityParsed = true
	}

	if err := opts.ParseConfigFile(); err != nil {
		return []string{}, err
	}

	opts.applyEnvironment()
	opts.applyDefaults()

	if err := opts.NormalizeURI(); err != nil {
		return []string{}, err
	}

	return extra, nil
}

// ParseConfigFile reads the YAML file named by --config, if any, into
// opts.Config. Keys the file does not set keep their current value.
func (opts *ToolOptions) ParseConfigFile() error {
	if opts.General.ConfigPath == "" {
		return nil
	}

	configBytes, err := os.ReadFile(opts.General.ConfigPath)
	if err != nil {
		return errors.Wrapf(err, "error opening file with --config")
	}

	config := opts.Config
	err = yaml.UnmarshalStrict(configBytes, &config)
	if err != nil {
		return errors.Wrapf(err, "error parsing config file %s", opts.General.ConfigPath)
	}
	opts.Config = config
	return nil
}

func (opts *ToolOptions) lookupEnv(names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(opts.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func (opts *ToolOptions) applyEnvironment() {
	if opts.Config.URI == "" {
		opts.Config.URI = opts.lookupEnv(URIEnvVars)
	}
	if opts.Config.Databases.Assertion == "" {
		opts.Config.Databases.Assertion = opts.lookupEnv(AssertionDatabaseEnvVars)
	}
	if opts.Config.Databases.User == "" {
		opts.Config.Databases.User = opts.lookupEnv(UserDatabaseEnvVars)
	}
	if opts.Config.Databases.Member == "" {
		opts.Config.Databases.Member = opts.lookupEnv(MemberDatabaseEnvVars)
	}
	if v := opts.lookupEnv(LogFileEnvVars); v != "" {
		opts.Config.LogFile = v
	}
}

func (opts *ToolOptions) applyDefaults() {
	if opts.Config.URI == "" {
		opts.Config.URI = DefaultURI
	}
	if opts.Config.Databases.Assertion == "" {
		opts.Config.Databases.Assertion = DefaultAssertionDatabase
	}
	if opts.Config.Databases.User == "" {
		opts.Config.Databases.User = DefaultUserDatabase
	}
	if opts.Config.Databases.Member == "" {
		opts.Config.Databases.Member = DefaultMemberDatabase
	}
	if opts.Config.IDLength <= 0 {
		opts.Config.IDLength = DefaultIDLength
	}
	if opts.Config.ConnectTimeout <= 0 {
		opts.Config.ConnectTimeout = DefaultConnectTimeout
	}
}

// NormalizeURI picks the connection string (--mongo-uri over the resolved
// configuration) and validates it.
func (opts *ToolOptions) NormalizeURI() error {
	if opts.URI.ConnectionString == "" {
		opts.URI.ConnectionString = opts.Config.URI
	}

	cs, err := connstring.ParseAndValidate(opts.URI.ConnectionString)
	if err != nil {
		return errors.Wrap(err, "error parsing URI")
	}
	opts.URI.ConnString = *cs
	opts.Config.URI = opts.URI.ConnectionString
	return nil
}

// SensitiveOptionWarnings returns the warnings to log for credentials that
// appear on the command line.
func SensitiveOptionWarnings(args []string) []string {
	tempOpts := New("", "", "", "", "")
	// Tool-specific flags are unknown to the temporary parser.
	tempOpts.parser.Options |= flags.IgnoreUnknown
	if _, err := tempOpts.parser.ParseArgs(args); err != nil {
		return nil
	}

	uri := tempOpts.URI.ConnectionString
	if uri == "" {
		return nil
	}
	if cs, err := connstring.Parse(uri); err == nil && cs.Password != "" {
		return []string{uriPasswordWarning}
	}
	return nil
}
