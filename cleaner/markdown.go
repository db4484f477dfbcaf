package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/use-agent/winnow/models"
)

// Minimal cell padding keeps column alignment from inflating the
// fingerprinted text.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// markdown renders extracted article HTML. Relative links resolve against
// sourceURL so the same page fetched twice yields the same text.
func (c *Cleaner) markdown(content, sourceURL string) (string, error) {
	md, err := c.mdConverter.ConvertString(content, converter.WithDomain(sourceURL))
	if err != nil {
		return "", models.NewPipelineError(
			models.ErrCodeExtraction,
			"markdown conversion failed",
			err,
		)
	}
	return strings.TrimSpace(md), nil
}
