package orchestrator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/geraldfingburke/autopress/internal/models"
	"github.com/geraldfingburke/autopress/internal/prompt"
	"github.com/geraldfingburke/autopress/internal/publish"
)

// ScholarlyWriter implements §4.L: a PDF-fed variant of the writer
// orchestrator using a paper-oriented prompt family. Text extraction via
// github.com/ledongthuc/pdf is grounded in
// rcliao-briefly/internal/fetch/pdf.go, the only PDF-handling code
// anywhere in the retrieval pack.
type ScholarlyWriter struct {
	*Orchestrator
}

// NewScholarlyWriter wraps an existing Orchestrator to reuse its registry
// and writer client.
func NewScholarlyWriter(o *Orchestrator) *ScholarlyWriter {
	return &ScholarlyWriter{Orchestrator: o}
}

// ExtractPDFText pulls plain text out of a PDF at pdfPathOrURL, supporting
// both a local file path and a remote URL, mirroring the two branches in
// rcliao-briefly's ProcessPDFContent.
func ExtractPDFText(pdfPathOrURL string) (string, error) {
	var reader io.ReaderAt
	var size int64

	if strings.HasPrefix(pdfPathOrURL, "http://") || strings.HasPrefix(pdfPathOrURL, "https://") {
		resp, err := http.Get(pdfPathOrURL)
		if err != nil {
			return "", fmt.Errorf("scholarly: fetch pdf %s: %w", pdfPathOrURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("scholarly: fetch pdf %s: status %d", pdfPathOrURL, resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("scholarly: read pdf body %s: %w", pdfPathOrURL, err)
		}
		reader = strings.NewReader(string(data))
		size = int64(len(data))
	} else {
		filePath := strings.TrimPrefix(pdfPathOrURL, "file://")
		file, err := os.Open(filePath)
		if err != nil {
			return "", fmt.Errorf("scholarly: open pdf %s: %w", filePath, err)
		}
		defer file.Close()

		stat, err := file.Stat()
		if err != nil {
			return "", fmt.Errorf("scholarly: stat pdf %s: %w", filePath, err)
		}
		reader = file
		size = stat.Size()
	}

	pdfReader, err := pdf.NewReader(reader, size)
	if err != nil {
		return "", fmt.Errorf("scholarly: open pdf reader for %s: %w", pdfPathOrURL, err)
	}

	var text strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}

	return text.String(), nil
}

// ProcessPDF implements §4.L end to end: extract text, build an article
// prompt, generate (with a sequential social fallback call when the
// article response omits social fields — the fallback's prompt depends on
// articleResp.ArticleText, so it cannot start until the article call
// returns, unlike the per-destination fan-out in ProcessArticle, where
// destinations are independent of each other), and materialize the same
// file set as §4.K(f) minus slug.txt.
func (s *ScholarlyWriter) ProcessPDF(ctx context.Context, arxivID, pdfPathOrURL string, dest Destination) error {
	targetDir := filepath.Join(dest.BaseOutputDir, arxivID)

	if publish.IsComplete(targetDir) {
		return nil
	}

	text, err := ExtractPDFText(pdfPathOrURL)
	if err != nil {
		return fmt.Errorf("scholarly: %w", err)
	}

	promptText := prompt.Assemble(dest.CustomArticlePrompt, dest.ArticleTemplates, prompt.ChannelArticle, text)

	articleResp, articleTokens, err := s.WriterClient.GenerateArticle(ctx, dest.Writer, "article", promptText)
	if err != nil {
		return fmt.Errorf("scholarly: article generation failed for %s: %w", arxivID, err)
	}

	tokens := models.Tokens{Prompt: articleTokens.Prompt, Completion: articleTokens.Completion}
	linkedIn, xPost, shorts := articleResp.LinkedInPost, articleResp.XPost, articleResp.ShortsScript

	if !articleResp.HasSocialFields() {
		socialPrompt := prompt.Assemble(dest.CustomSocialPrompt, dest.SocialTemplates, prompt.ChannelSocial, articleResp.ArticleText)

		socialResp, socialTokens, err := s.WriterClient.GenerateSocial(ctx, dest.Writer, socialPrompt)
		if err != nil {
			return fmt.Errorf("scholarly: social fallback failed for %s: %w", arxivID, err)
		}

		linkedIn, xPost, shorts = socialResp.LinkedInPost, socialResp.XPost, socialResp.ShortsScript
		tokens.Prompt += socialTokens.Prompt
		tokens.Completion += socialTokens.Completion
	}

	if err := publish.Write(targetDir, publish.ArticleContent{
		Title:           articleResp.Title,
		Subtitle:        articleResp.Subtitle,
		ArticleMarkdown: articleResp.ArticleText,
		ImageCategories: sanitizeImageCategories(articleResp.ImageCategories),
		SourceCategory:  "scholarly",
		XPost:           xPost,
		LinkedInPost:    linkedIn,
		ShortsScript:    shorts,
	}); err != nil {
		return fmt.Errorf("scholarly: write output for %s failed: %w", arxivID, err)
	}

	relOutputDir := publish.NormalizeOutputDir(s.WorkspaceRoot, targetDir)
	if err := s.Registry.RegisterPublished(arxivID, relOutputDir, articleResp.Title, "", tokens); err != nil {
		return fmt.Errorf("scholarly: registry update for %s failed: %w", arxivID, err)
	}

	return nil
}
