package password

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Blacklist es un set de contraseñas prohibidas, comparadas en minúsculas.
// Se carga una vez al arrancar y es de solo lectura.
type Blacklist struct {
	data map[string]struct{}
}

func NewBlacklist(words ...string) *Blacklist {
	bl := &Blacklist{data: make(map[string]struct{}, len(words))}
	for _, w := range words {
		bl.add(w)
	}
	return bl
}

// LoadBlacklist lee un archivo con una contraseña por línea. Las líneas que
// empiezan con '#' se ignoran. Un path vacío devuelve una lista vacía.
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := NewBlacklist()
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open blacklist: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		bl.add(line)
	}
	return bl, sc.Err()
}

func (b *Blacklist) add(w string) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w != "" {
		b.data[w] = struct{}{}
	}
}

func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

func (b *Blacklist) Contains(pwd string) bool {
	if b == nil {
		return false
	}
	_, ok := b.data[strings.ToLower(strings.TrimSpace(pwd))]
	return ok
}
