package cli

import (
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

var (
	sectionHeaderRe  = regexp.MustCompile(`^[A-Z][A-Za-z ]+:$`)
	commandListingRe = regexp.MustCompile(`^( {2})(\S+)(\s{2,}.*)$`)
	flagLineRe       = regexp.MustCompile(`^( +)(-.+?)( {2,}.*)$`)
)

// helpFunc renders cobra's usage text in color and, for role-gated commands,
// names the roles that may run them.
func helpFunc(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()

	var buf strings.Builder
	cmd.SetOut(&buf)
	cmd.InitDefaultHelpFlag()
	_ = cmd.Usage()
	cmd.SetOut(out)

	var b strings.Builder
	if cmd.Long != "" {
		b.WriteString(Text(cmd.Long) + "\n\n")
	} else if cmd.Short != "" {
		b.WriteString(Text(cmd.Short) + "\n\n")
	}
	if roles, ok := requiredRoles(cmd); ok {
		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		b.WriteString(Info("Roles:") + " " + Warning(strings.Join(names, ", ")) + "\n\n")
	}
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		b.WriteString(colorizeLine(line) + "\n")
	}
	_, _ = out.Write([]byte(b.String()))
}

func colorizeLine(line string) string {
	trimmed := strings.TrimSpace(line)
	switch {
	case sectionHeaderRe.MatchString(trimmed):
		return Info(line)
	case strings.HasPrefix(trimmed, `Use "`):
		return Silent(line)
	}
	if m := flagLineRe.FindStringSubmatch(line); m != nil {
		return m[1] + Primary(m[2]) + Text(m[3])
	}
	if m := commandListingRe.FindStringSubmatch(line); m != nil {
		return m[1] + Primary(m[2]) + Silent(m[3])
	}
	return Text(line)
}
