package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/iql/internal/signature"
)

// ParamInfo describes one parameter for listing.
type ParamInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Context bool     `json:"context"`
	Markers []string `json:"markers,omitempty"`
}

// SignatureInfo describes one operation for listing.
type SignatureInfo struct {
	Name        string      `json:"name"`
	Signature   string      `json:"signature"`
	Description string      `json:"description,omitempty"`
	Params      []ParamInfo `json:"params"`
}

// SignatureList is the output of iql signatures.
type SignatureList struct {
	File       string          `json:"file"`
	Operations []SignatureInfo `json:"operations"`
}

func (l SignatureList) renderText(w io.Writer) {
	fmt.Fprintf(w, "%d operation(s) in %s\n", len(l.Operations), l.File)
	for _, op := range l.Operations {
		fmt.Fprintf(w, "  %s\n", op.Signature)
		if op.Description != "" {
			fmt.Fprintf(w, "      %s\n", op.Description)
		}
	}
}

// SignaturesOptions holds flags for the signatures command.
type SignaturesOptions struct {
	*RootOptions
	Export bool // print normalized YAML declarations instead of a listing
}

// NewSignaturesCommand creates the signatures command.
func NewSignaturesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SignaturesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signatures <file>",
		Short: "Load a signature file and list its operations",
		Long: `Load a YAML or CUE signature file, check every type expression and
list the registered operations in declaration order.

With --export the registry is printed back as YAML declarations, which
converts a CUE file to the YAML form.

Examples:
  iql signatures people.yaml
  iql signatures people.cue --export > people.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignatures(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Export, "export", false, "print normalized YAML declarations")

	return cmd
}

func runSignatures(opts *SignaturesOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, code, err := loadRegistry(path)
	if err != nil {
		return formatter.fail(code, "load signatures", err)
	}

	if opts.Export {
		data, err := signature.MarshalYAML(reg)
		if err != nil {
			return formatter.fail(ErrCodeGeneric, "export signatures", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	list := SignatureList{File: path, Operations: make([]SignatureInfo, 0, reg.Len())}
	for _, sig := range reg.Signatures() {
		info := SignatureInfo{
			Name:        sig.Name,
			Signature:   sig.String(),
			Description: sig.Description,
			Params:      make([]ParamInfo, len(sig.Params)),
		}
		for i, p := range sig.Params {
			info.Params[i] = ParamInfo{
				Name:    p.Name,
				Type:    p.Type.String(),
				Context: signature.AllowsContext(p.Type),
				Markers: signature.Markers(p.Type),
			}
		}
		list.Operations = append(list.Operations, info)
	}
	return formatter.Success(list)
}
