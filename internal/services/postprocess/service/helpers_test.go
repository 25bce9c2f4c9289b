package service

import "os"

func writeFile(path string) error { return os.WriteFile(path, []byte("not a dir"), 0o600) }
