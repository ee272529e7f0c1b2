package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is one cached value: either the raw text of a page or an index
// mapping extracted from it (state name -> URL, city key -> URL).
//
// On disk a text entry is a JSON string and an index entry is a JSON object,
// so a file written by earlier versions of the scraper still loads.
type Entry struct {
	text    string
	index   map[string]string
	isIndex bool
}

func TextEntry(text string) Entry {
	return Entry{text: text}
}

func IndexEntry(index map[string]string) Entry {
	copied := make(map[string]string, len(index))
	for k, v := range index {
		copied[k] = v
	}
	return Entry{index: copied, isIndex: true}
}

func (e Entry) IsIndex() bool {
	return e.isIndex
}

func (e Entry) Text() string {
	return e.text
}

// Index returns a copy of the index mapping, or nil for text entries.
func (e Entry) Index() map[string]string {
	if !e.isIndex {
		return nil
	}
	copied := make(map[string]string, len(e.index))
	for k, v := range e.index {
		copied[k] = v
	}
	return copied
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.isIndex {
		if e.index == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(e.index)
	}
	return json.Marshal(e.text)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty cache entry")
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*e = TextEntry(text)
		return nil
	case '{':
		var index map[string]string
		if err := json.Unmarshal(trimmed, &index); err != nil {
			return err
		}
		*e = Entry{index: index, isIndex: true}
		if e.index == nil {
			e.index = map[string]string{}
		}
		return nil
	default:
		return fmt.Errorf("unsupported cache entry: %s", string(trimmed[:1]))
	}
}
