package installer

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kamusis/aipkg/internal/apperr"
	"github.com/kamusis/aipkg/internal/fsutil"
	"github.com/kamusis/aipkg/internal/metadata"
)

// DesktopEntry renders the launcher file for an installed artifact.
func DesktopEntry(name string, info *metadata.Info, target string) string {
	display := info.Name
	if display == "" || display == name || display == metadata.Stem(target) {
		display = DisplayName(name)
	}
	icon := info.Icon
	if icon == "" {
		icon = target
	}

	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", display)
	fmt.Fprintf(&b, "Exec=%s\n", target)
	fmt.Fprintf(&b, "Icon=%s\n", icon)
	fmt.Fprintf(&b, "Categories=%s\n", strings.Join(info.Categories, ";"))
	fmt.Fprintf(&b, "Comment=%s\n", info.Description)
	b.WriteString("Terminal=false\n")
	b.WriteString("StartupNotify=true\n")
	return b.String()
}

// DisplayName title-cases a package name for menus: "my-tool" → "My Tool".
func DisplayName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	if len(words) == 0 {
		return name
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

func (in *Installer) writeDesktopFile(name string, info *metadata.Info, target string) (string, error) {
	path := filepath.Join(in.paths.DesktopDir, name+".desktop")
	if err := fsutil.WriteFileAtomic(path, []byte(DesktopEntry(name, info, target)), 0o644); err != nil {
		return "", apperr.Wrap(apperr.CodeFilesystem, err, "cannot write desktop file %s", path)
	}
	return path, nil
}
