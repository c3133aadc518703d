// Package config provides configuration management for fearcli.
// It loads the application configuration (logging, paths, plot defaults,
// telemetry) and the per-project experiment configuration that describes
// where the VideoFreeze exports live and how animals map to groups.
//
// # Configuration Sources
//
// Application configuration is assembled in order of increasing precedence:
//
//	1. Default values (Default)
//	2. A YAML file (fearcli.yaml, configs/fearcli.yaml or $FEAR_CONFIG_FILE)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern FEAR_<SECTION>_<FIELD>:
//
//	FEAR_LOGGING_LEVEL=debug
//	FEAR_PATHS_DATA_DIR=/srv/tfc/data
//	FEAR_PLOT_FORMAT=svg
//	FEAR_PLOT_PALETTE=#2b88f0,#FF0036
//	FEAR_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Experiment Configuration
//
// LoadExperiment reads the project file and Experiment.Session resolves one
// session into a domain.SessionConfig:
//
//	exp, err := config.LoadExperiment("expt_config.yaml")
//	if err != nil {
//	    return err
//	}
//	sess, err := exp.Session("train")
//
// Unknown sessions fail with a CONFIG error; a missing file fails with
// MISSING_FILE.
package config
