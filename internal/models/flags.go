package models

// Flag positions inside a flags bitstring.
const (
	flagReadOnly = iota
	flagShowIcons
	flagRichEdit3
	flagNoMultiBackup

	flagCount
)

// Flags are the document-level switches stored as a '0'/'1' string.
type Flags struct {
	ReadOnly      bool `json:"read_only" yaml:"read_only"`
	ShowIcons     bool `json:"show_icons" yaml:"show_icons"`
	RichEdit3     bool `json:"rich_edit3" yaml:"rich_edit3"`
	NoMultiBackup bool `json:"no_multi_backup" yaml:"no_multi_backup"`
}

// ParseFlags decodes a bitstring. Strings shorter than four characters
// leave every flag unset.
func ParseFlags(s string) Flags {
	if len(s) < flagCount {
		return Flags{}
	}
	return Flags{
		ReadOnly:      s[flagReadOnly] == '1',
		ShowIcons:     s[flagShowIcons] == '1',
		RichEdit3:     s[flagRichEdit3] == '1',
		NoMultiBackup: s[flagNoMultiBackup] == '1',
	}
}

func (f Flags) String() string {
	b := []byte("0000")
	set := func(pos int, v bool) {
		if v {
			b[pos] = '1'
		}
	}
	set(flagReadOnly, f.ReadOnly)
	set(flagShowIcons, f.ShowIcons)
	set(flagRichEdit3, f.RichEdit3)
	set(flagNoMultiBackup, f.NoMultiBackup)
	return string(b)
}
