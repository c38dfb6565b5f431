package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func writeSysfs(path string, value string) error {
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed writing %s: %w", path, err)
	}
	return nil
}

func writeSysfsInt(path string, value int64) error {
	return writeSysfs(path, strconv.FormatInt(value, 10))
}

func readSysfsInt(path string) (int64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return -1, fmt.Errorf("sysfs attribute not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return -1, fmt.Errorf("failed reading %s: %w", path, err)
	}

	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return -1, fmt.Errorf("failed parsing %s: %w", filepath.Base(path), err)
	}

	return value, nil
}

func InRange(v, min, max int) bool {
	return v >= min && v <= max
}
