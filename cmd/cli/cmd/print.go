package cmd

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"abc-dashboard/internal/export"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Open the printable dog list in the browser",
	Long: `Fetch the print view of the filtered dog table and open it in the
default browser, which shows the print dialog once the page loads.`,
	Args: cobra.NoArgs,
	RunE: runPrint,
}

var printFilter dogFilterFlags

func init() {
	rootCmd.AddCommand(printCmd)
	printFilter.register(printCmd)
}

// browserOpener opens a local file with the desktop's default handler
type browserOpener struct {
	goos string
}

func (o browserOpener) command(path string) (string, []string) {
	switch o.goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

func (o browserOpener) Open(path string) error {
	name, args := o.command(path)
	return exec.Command(name, args...).Start()
}

func runPrint(cmd *cobra.Command, args []string) error {
	if err := printFilter.validate(); err != nil {
		return err
	}

	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	d, err := client.Download("/api/print/dogs", printFilter.query().Values())
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	path, err := export.OpenDocument(cmd.Context(), browserOpener{goos: runtime.GOOS}, d.Data)
	var blocked *export.PopupBlockedError
	if errors.As(err, &blocked) {
		formatter.PrintInfo(fmt.Sprintf("Could not open a browser; open %s to print", blocked.Path))
		return nil
	}
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	formatter.PrintSuccess(fmt.Sprintf("Opened %s", path))
	return nil
}

var _ export.DocumentOpener = browserOpener{}
