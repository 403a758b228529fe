package translation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "es"), 0o755))
	po := "msgid \"\"\nmsgstr \"\"\n\"Language: es\\n\"\n\nmsgid \"Price of *%s*: $%s\"\nmsgstr \"Precio de *%s*: $%s\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "es", "default.po"), []byte(po), 0o644))

	Configure(dir, "ES.UTF-8")
	t.Cleanup(func() { Configure(dir, "en") })

	require.Equal(t, "es", GetLanguage())
	require.Equal(t, "Precio de *%s*: $%s", Translate("Price of *%s*: $%s"))
	require.Equal(t, "Untranslated text", Translate("Untranslated text"))
}
