/*
Package cli provides helpers shared by the conduit commands.

Errors:

ConfigError and CommandError give command failures a consistent prefix:

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(path, err.Error())
	}

Output:

Commands that print records accept --format and --output. ParseFormat
checks the format name and OpenOutput returns stdout for an empty path:

	w, err := cli.OpenOutput(flags.output)
	if err != nil {
		return err
	}
	defer w.Close()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
