package launcher

import (
	"strings"

	"github.com/oshokin/selenium-launcher/internal/params"
)

// jarFlag tells the JVM to run an executable archive.
const jarFlag = "-jar"

// LaunchCommand is the executable and its arguments.
type LaunchCommand struct {
	// Executable is the Java executable.
	Executable string
	// Args are the arguments after the executable.
	Args []string
}

// String renders the command for logs.
func (c LaunchCommand) String() string {
	return strings.Join(append([]string{c.Executable}, c.Args...), " ")
}

// BuildCommand returns `<java> -jar <archive> <mode> --<key> <value>...`.
// Parameters keep their document order, with keys and values lower-cased.
func BuildCommand(java, archivePath, mode string, p *params.Params) LaunchCommand {
	args := []string{jarFlag, archivePath, mode}

	if p != nil {
		for _, entry := range p.Entries() {
			args = append(args, "--"+entry.Key, entry.FlagValue())
		}
	}

	return LaunchCommand{
		Executable: java,
		Args:       args,
	}
}
