// Package config loads typefinder configuration using Viper with CUE as the
// file format.
//
// Values come, in increasing precedence, from built-in defaults, a
// typefinder.cue file (validated against the embedded #Config schema), .env
// files and TYPEFINDER_* environment variables.
package config
