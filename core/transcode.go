package core

import (
	"errors"
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"filemetahx/config"
	"filemetahx/filemeta"
	"filemetahx/storage"
)

// Transcoder runs batch tasks: it walks a source filesystem for scalar
// stream files, derives a basename per file, and copies every scalar from
// the input descriptor to each output descriptor in its configured
// protocol.
type Transcoder struct {
	History *HistoryManager
}

func NewTranscoder(hm *HistoryManager) *Transcoder {
	return &Transcoder{History: hm}
}

func (tc *Transcoder) RunTask(task config.Task) error {
	log.Printf("Starting task: %s", task.Name)

	srcFS, err := storage.New(task.SourceType, task.SourceRoot, storageAuth(task.SourceAuth))
	if err != nil {
		return fmt.Errorf("failed to init source storage: %w", err)
	}
	defer srcFS.Close()

	dstFS, err := storage.New(task.TargetType, task.TargetRoot, storageAuth(task.TargetAuth))
	if err != nil {
		return fmt.Errorf("failed to init target storage: %w", err)
	}
	defer dstFS.Close()

	regex, err := regexp.Compile(task.SourceRegex)
	if err != nil {
		return fmt.Errorf("invalid source regex: %w", err)
	}

	// A pattern without a wildcard resolves to the same name for every
	// basename; legal, but worth surfacing in a batch task.
	for _, spec := range task.OutputSpecs {
		fm := new(filemeta.FileMeta)
		if err := fm.Parse(spec); err == nil && !filemeta.HasWildcard(fm.Pattern) {
			log.Printf("Task %s: output %q has no wildcard, every file writes the same name", task.Name, spec)
		}
	}

	history := tc.History.TaskHistory(task.Name)

	var errs *multierror.Error
	tc.processDirectory(srcFS, dstFS, "", task, regex, history, &errs)

	if task.RetentionDays > 0 {
		tc.cleanup(dstFS, task, history)
	}

	tc.History.Save()
	log.Printf("Finished task: %s", task.Name)
	return errs.ErrorOrNil()
}

func (tc *Transcoder) processDirectory(srcFS, dstFS storage.FileSystem, relPath string, task config.Task, regex *regexp.Regexp, history *TaskHistory, errs **multierror.Error) {
	entries, err := srcFS.List(relPath)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("list %s: %w", relPath, err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir {
			tc.processDirectory(srcFS, dstFS, path.Join(relPath, entry.Name), task, regex, history, errs)
			continue
		}
		if !regex.MatchString(entry.Name) {
			continue
		}

		basename := path.Join(relPath, strings.TrimSuffix(entry.Name, path.Ext(entry.Name)))
		if history.Has(basename) {
			continue
		}

		n, err := tc.transcodeFile(srcFS, dstFS, task, basename)
		if err != nil {
			log.Printf("Failed to transcode %s: %v", basename, err)
			*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", basename, err))
			continue
		}
		log.Printf("Transcoded %s (%d values)", basename, n)
		history.Add(basename)
	}
}

// transcodeFile opens the input descriptor and every output descriptor for
// one basename and streams scalars until the input is exhausted. All
// descriptors are closed on every path.
func (tc *Transcoder) transcodeFile(srcFS, dstFS storage.FileSystem, task config.Task, basename string) (n int, err error) {
	in := new(filemeta.FileMeta)
	if err := in.Parse(task.SourceSpec); err != nil {
		return 0, fmt.Errorf("source spec: %w", err)
	}
	in.DefaultProtocol(defaultProtocol(task))
	if err := in.OpenFS(srcFS, basename, "r"); err != nil {
		return 0, err
	}
	defer in.Close()

	outs := make([]*filemeta.FileMeta, 0, len(task.OutputSpecs))
	defer func() {
		for _, out := range outs {
			if cerr := out.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	for _, spec := range task.OutputSpecs {
		out := new(filemeta.FileMeta)
		if err := out.Parse(spec); err != nil {
			return 0, fmt.Errorf("output spec %q: %w", spec, err)
		}
		out.DefaultProtocol(in.Protocol)
		if err := out.OpenFS(dstFS, basename, "w"); err != nil {
			return 0, err
		}
		outs = append(outs, out)
	}

	return copyScalars(task.Value, in, outs)
}

// copyScalars pumps one scalar at a time from in to every out until the
// input stream ends.
func copyScalars(kind string, in *filemeta.FileMeta, outs []*filemeta.FileMeta) (int, error) {
	for n := 0; ; n++ {
		switch kind {
		case "uint8":
			v, err := in.GetUint8()
			if errors.Is(err, filemeta.ErrEndOfFile) {
				return n, nil
			}
			if err != nil {
				return n, err
			}
			for _, out := range outs {
				if err := out.PutUint8(v); err != nil {
					return n, err
				}
			}
		default: // double
			v, err := in.GetFloat64()
			if errors.Is(err, filemeta.ErrEndOfFile) {
				return n, nil
			}
			if err != nil {
				return n, err
			}
			for _, out := range outs {
				if err := out.PutFloat64(v); err != nil {
					return n, err
				}
			}
		}
	}
}

// cleanup removes the outputs of basenames transcoded before the retention
// cutoff and forgets their history entries, so a later rerun regenerates
// them.
func (tc *Transcoder) cleanup(dstFS storage.FileSystem, task config.Task, history *TaskHistory) {
	cutoff := time.Now().AddDate(0, 0, -task.RetentionDays)

	for basename, processedAt := range history.Snapshot() {
		if !processedAt.Before(cutoff) {
			continue
		}
		for _, spec := range task.OutputSpecs {
			fm := new(filemeta.FileMeta)
			if err := fm.Parse(spec); err != nil {
				continue
			}
			name, err := fm.Resolve(basename)
			if err != nil {
				continue
			}
			if _, err := dstFS.Stat(name); err != nil {
				// Already gone.
				continue
			}
			log.Printf("Cleaning up old output: %s (transcoded at %v)", name, processedAt)
			if err := dstFS.Remove(name); err != nil {
				log.Printf("Failed to remove %s: %v", name, err)
			}
		}
		history.Remove(basename)
	}
}

func defaultProtocol(task config.Task) filemeta.Protocol {
	if p, ok := filemeta.ParseProtocol(task.DefaultProtocol); ok {
		return p
	}
	return filemeta.ProtocolASCII
}

func storageAuth(a *config.Auth) *storage.Auth {
	if a == nil {
		return nil
	}
	return &storage.Auth{
		Host:     a.Host,
		Port:     a.Port,
		User:     a.User,
		Password: a.Password,
	}
}
