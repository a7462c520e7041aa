package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// decoderFor maps an encoding name to a text decoder. UTF-8 (or empty) needs
// none. Legacy 8-bit Chinese encodings cover the field-sensor exports this
// tool routinely ingests.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "gbk", "gb2312":
		return simplifiedchinese.GBK.NewDecoder(), nil
	case "gb18030":
		return simplifiedchinese.GB18030.NewDecoder(), nil
	case "big5":
		return traditionalchinese.Big5.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unknown text encoding %q", name)
	}
}

func openCSV(path, encodingName string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	dec, err := decoderFor(encodingName)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		reader = transform.NewReader(f, dec)
	}

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1 // tolerate ragged rows; Column pads short ones

	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("csv %s has no header row", path)
	}
	return &Table{header: all[0], rows: all[1:]}, nil
}
