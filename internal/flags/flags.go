// File: internal/flags/flags.go
package flags

// Centralized definitions for CLI flags used across the application

const (
	// Provider selects the object store backend (aws, gcp, minio)
	Provider      = "provider"
	ProviderShort = "p"

	// Bucket flags specify the bucket where the modules reside
	Bucket      = "bucket"
	BucketShort = "b"

	// Prefix is the shared key prefix for all modules in the bucket
	Prefix = "prefix"

	// Profile and AWSDirectory control how the AWS SDK resolves credentials
	Profile      = "profile"
	AWSDirectory = "aws-directory"

	// Output selects how command results are rendered (table, json, yaml)
	Output      = "output"
	OutputShort = "o"

	// Debug flags are used to enable verbose logging
	Debug      = "debug"
	DebugShort = "d"

	// Verbose lists version details for every module instead of just module names
	Verbose      = "verbose"
	VerboseShort = "v"

	// Latest restricts version listings to the newest published version
	Latest = "latest"

	// Target filters publishing to the named module directories (repeatable)
	Target      = "target"
	TargetShort = "t"

	// DryRun performs bundling and comparison without uploading anything
	DryRun = "dry-run"

	// Force publishes modules even when no changes are detected
	Force      = "force"
	ForceShort = "f"

	// Interactive asks for confirmation before each upload
	Interactive      = "interactive"
	InteractiveShort = "i"
)
