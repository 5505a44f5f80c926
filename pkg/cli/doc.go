/*
Package cli provides helpers shared by the overseer commands.

Output Formatting:

Command results can be printed as aligned text, JSON or CSV. Results that
implement Table are rendered as columns by the text and CSV formatters:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
	    return err
	}
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
	    return err
	}

Progress Reporting:

Jellyfin lookups from the command line report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(titles)))
	for i, title := range titles {
	    lookup(title)
	    progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// ctx is cancelled on SIGINT or SIGTERM
*/
package cli
