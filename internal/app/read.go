package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Read drains and closes reader. A failed close is reported even when the
// content was read completely.
func Read(reader io.ReadCloser) (content []byte, err error) {
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing reader: %w", closeErr)
		}
	}()

	return io.ReadAll(reader)
}

func ReadJSON[T any](content []byte) (*T, error) {
	if len(content) == 0 {
		return nil, errors.New("no reader content error")
	}

	var t *T
	if err := json.Unmarshal(content, &t); err != nil {
		return nil, err
	}

	return t, nil
}
