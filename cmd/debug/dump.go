package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "导出工作区快照(yaml)",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupOthers,
	},
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dat, err := yaml.Marshal(newSnapshotDoc(CurrentSession.ws.Snapshot()))
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}

		if len(args) == 0 {
			_, err = cmd.OutOrStdout().Write(dat)
			return err
		}

		file, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(file, dat, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "snapshot written to %s\n", file)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(dumpCmd)
}

// snapshotDoc is the YAML layout of a dumped snapshot.
type snapshotDoc struct {
	Session     string                 `yaml:"session"`
	Taken       time.Time              `yaml:"taken"`
	State       string                 `yaml:"state"`
	Current     *frameDoc              `yaml:"current,omitempty"`
	Variables   map[string]variableDoc `yaml:"variables"`
	Watched     []string               `yaml:"watched"`
	Stack       []frameDoc             `yaml:"stack"`
	Breakpoints []breakpointDoc        `yaml:"breakpoints"`
	Log         []string               `yaml:"log"`
}

type variableDoc struct {
	Value    any       `yaml:"value"`
	Type     string    `yaml:"type"`
	Location string    `yaml:"location"`
	Updated  time.Time `yaml:"updated"`
	Changed  bool      `yaml:"changed"`
}

type frameDoc struct {
	Function string            `yaml:"function"`
	Location string            `yaml:"location,omitempty"`
	Args     map[string]string `yaml:"args,omitempty"`
}

type breakpointDoc struct {
	ID      uint64 `yaml:"id"`
	Key     string `yaml:"key"`
	Cond    string `yaml:"cond,omitempty"`
	Enabled bool   `yaml:"enabled"`
	Hits    int    `yaml:"hits"`
}

func newSnapshotDoc(s workspace.Snapshot) snapshotDoc {
	doc := snapshotDoc{
		Session:   s.Session,
		Taken:     s.Taken,
		State:     s.State.String(),
		Variables: make(map[string]variableDoc, len(s.Variables)),
		Watched:   s.Watched,
	}
	for name, v := range s.Variables {
		doc.Variables[name] = variableDoc{
			Value:    v.Value,
			Type:     v.Type,
			Location: v.Location,
			Updated:  v.UpdatedAt,
			Changed:  v.Changed,
		}
	}
	for i := len(s.Stack) - 1; i >= 0; i-- {
		f := s.Stack[i]
		doc.Stack = append(doc.Stack, frameDoc{Function: f.Function, Location: f.Location(), Args: f.Args})
	}
	if len(doc.Stack) != 0 {
		doc.Current = &doc.Stack[0]
	}
	for _, b := range s.Breakpoints {
		doc.Breakpoints = append(doc.Breakpoints, breakpointDoc{
			ID: b.ID, Key: b.Key, Cond: b.Cond, Enabled: b.Enabled, Hits: b.HitCount,
		})
	}
	for _, e := range s.Log {
		doc.Log = append(doc.Log, fmt.Sprintf("%s [%s] %s", e.Time.Format(time.RFC3339), e.Kind, e.Message))
	}
	return doc
}
