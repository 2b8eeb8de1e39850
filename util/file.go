package util

import (
	"os"
	"path"
	"strings"
)

// takes a save path and a variable number of strings and writes them to file separated by new lines
func WriteToFile(savePath string, content ...string) error {
	if err := os.MkdirAll(path.Dir(savePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(savePath, []byte(strings.Join(content, "\n")), 0644)
}

func AppendToFile(savePath string, content ...string) error {
	if err := os.MkdirAll(path.Dir(savePath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}

	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}
