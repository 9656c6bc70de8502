package partition

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	clientsDir   = "clientes"
	clientsFile  = "clientes.txt"
	journalDir   = "transacciones"
	journalFile  = "transacciones.txt"
	accountsStem = "cuentas_"
)

// Layout names every file a worker reads or writes beneath its data root.
//
//	<root>/clientes/clientes.txt            client reference data
//	<root>/<partition>/cuentas_<partition>.txt  one account file per partition
//	<root>/transacciones/transacciones.txt  shared ledger journal
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{Root: dir}
}

// AccountFile returns the account file path of partition.
func (l Layout) AccountFile(partition string) string {
	return filepath.Join(l.Root, partition, accountsStem+partition+".txt")
}

// ClientFile returns the client reference file path.
func (l Layout) ClientFile() string {
	return filepath.Join(l.Root, clientsDir, clientsFile)
}

// JournalFile returns the shared transaction log path.
func (l Layout) JournalFile() string {
	return filepath.Join(l.Root, journalDir, journalFile)
}

// FilesFor maps every partition in set to its account file.
func (l Layout) FilesFor(set Set) map[string]string {
	files := make(map[string]string, set.Len())
	for _, name := range set.names {
		files[name] = l.AccountFile(name)
	}
	return files
}

// Ensure creates the client, journal and per-partition directories for set.
// Existing directories are left untouched.
func (l Layout) Ensure(set Set) error {
	dirs := []string{
		filepath.Join(l.Root, clientsDir),
		filepath.Join(l.Root, journalDir),
	}
	for _, name := range set.names {
		dirs = append(dirs, filepath.Join(l.Root, name))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
