package nodes

import (
	"context"
	"errors"

	"github.com/docgen-ai/docgen/pkg/events"
	"github.com/docgen-ai/docgen/pkg/ingest"
	"github.com/docgen-ai/docgen/pkg/models"
	"github.com/docgen-ai/docgen/pkg/workflow"
)

type ingestNode struct{ base }

func newIngestNode(d *Deps) *ingestNode {
	return &ingestNode{base{name: workflow.NodeIngestSources, group: events.GroupParsing, deps: d}}
}

func (n *ingestNode) Run(ctx context.Context, st *workflow.State) *workflow.State {
	resolved, err := n.deps.Ingest.Resolve(ctx, ingest.ResolveInput{
		Sources:      st.Sources,
		Provider:     st.Provider,
		Model:        st.Model,
		APIKey:       st.Keys.APIKey,
		SessionDir:   st.SessionDir,
		DocumentKind: st.ArtifactKind.IsDocument(),
	})
	if err != nil {
		st.AddError(models.CodeOf(err), "%s", errMessage(err))
		return st
	}

	st.RawContent = resolved.RawContent
	st.ContentHash = resolved.ContentHash
	st.InputPath = resolved.InputPath
	st.InputFormat = string(resolved.Format)
	if st.Title == "" {
		st.Title = resolved.Title
	}
	st.SetMeta("source_count", resolved.SourceCount)
	if resolved.PageCount > 0 {
		st.SetMeta("page_count", resolved.PageCount)
	}
	if resolved.FileID != "" {
		st.SetMeta("file_id", resolved.FileID)
	}
	return st
}

// errMessage unwraps a CodedError's message for state recording; the code
// travels separately.
func errMessage(err error) string {
	var coded *models.CodedError
	if errors.As(err, &coded) {
		if coded.Err != nil {
			return coded.Message + ": " + coded.Err.Error()
		}
		return coded.Message
	}
	return err.Error()
}
