package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// StampSourceID writes the stable source id into an MP3's ID3v2 tag so a later scan can
// recover the dedup key even after the file is renamed.
//
// Other containers already carry the source URL in their comment field and are left as is.
func StampSourceID(path, id string) error {
	if strings.ToLower(filepath.Ext(path)) != ".mp3" || id == "" {
		return nil
	}

	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tag: %w", err)
	}
	defer t.Close()

	t.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: SourceIDFrame,
		Value:       id,
	})

	if err := t.Save(); err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}
	return nil
}
