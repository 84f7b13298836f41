package cmd

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var galleryTemplate = template.Must(template.New("gallery").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>pictag - {{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 1.5rem; background: #fafafa; color: #222; }
header { margin-bottom: 1rem; }
.count { color: #666; }
.grid { display: grid; grid-template-columns: repeat({{.Columns}}, 1fr); gap: 1rem; }
figure { margin: 0; background: #fff; border-radius: 6px; box-shadow: 0 1px 3px rgba(0,0,0,.15); overflow: hidden; }
figure img { width: 100%; height: 220px; object-fit: cover; display: block; }
figcaption { padding: .5rem .75rem; font-size: .85rem; }
.project { font-weight: 600; }
.tag { display: inline-block; background: #e8eef9; border-radius: 3px; padding: 0 .35rem; margin: .15rem .15rem 0 0; }
.manual .tag { background: #fde9c8; }
.broken { padding: 2rem 1rem; color: #b00; font-size: .8rem; word-break: break-all; }
details { color: #666; margin-top: .35rem; }
code { font-size: .75rem; word-break: break-all; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
<p class="count">Found {{.Total}} images{{if .Truncated}} (showing first {{.Shown}}){{end}} &middot; generated {{.Generated}}</p>
</header>
<div class="grid">
{{range .Items}}<figure{{if .Manual}} class="manual"{{end}}>
{{if .Error}}<div class="broken">Could not open image: {{.Error}}</div>{{else}}<img src="{{.Src}}" alt="{{.RelativePath}}" loading="lazy">{{end}}
<figcaption>
<div class="project">{{.Project}}</div>
<div>{{range .Tags}}<span class="tag">{{.}}</span>{{else}}<span class="count">no tags</span>{{end}}</div>
<details><summary>path</summary><code>{{.Path}}</code></details>
</figcaption>
</figure>
{{end}}</div>
</body>
</html>
`))

type galleryItem struct {
	Project      string
	RelativePath string
	Tags         []string
	Manual       bool
	Path         string
	Src          template.URL
	Error        string
}

type galleryPage struct {
	Title     string
	Columns   int
	Items     []galleryItem
	Total     int
	Shown     int
	Truncated bool
	Generated string
}

// renderGallery writes an HTML grid of images with project and tag captions
func renderGallery(w io.Writer, root string, records []domain.AssetRecord, selected []string, unreadable map[string]*domain.AssetUnreadableError, columns, limit int) error {
	title := "All images"
	if len(selected) > 0 {
		title = "Tagged: " + strings.Join(selected, ", ")
	}

	page := galleryPage{
		Title:     title,
		Columns:   columns,
		Total:     len(records),
		Generated: time.Now().Format("2006-01-02 15:04"),
	}

	shown := records
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
		page.Truncated = true
	}
	page.Shown = len(shown)

	for _, r := range shown {
		path := filepath.Join(root, filepath.FromSlash(r.RelativePath))
		item := galleryItem{
			Project:      r.Project,
			RelativePath: r.RelativePath,
			Tags:         r.Tags,
			Manual:       r.IsManual(),
			Path:         path,
			Src:          fileURL(path),
		}
		if err, bad := unreadable[r.RelativePath]; bad {
			item.Error = err.Error()
		}
		page.Items = append(page.Items, item)
	}

	return galleryTemplate.Execute(w, page)
}

func writeAndOpenGallery(records []domain.AssetRecord, selected []string, unreadable map[string]*domain.AssetUnreadableError) error {
	if err := os.MkdirAll(appLibrary.CachePath, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := appLibrary.GalleryPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create gallery: %w", err)
	}

	if err := renderGallery(f, appLibrary.AssetsPath, records, selected, unreadable, appConfig.GalleryColumns, appConfig.MaxGalleryItems); err != nil {
		f.Close()
		return fmt.Errorf("failed to render gallery: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Gallery with %d images written", len(records))))
	fmt.Println(ui.FormatMuted(path))

	return OpenFile(path, "")
}

func fileURL(path string) template.URL {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(u.Path, "/") {
		// Windows drive letters
		u.Path = "/" + u.Path
	}
	return template.URL(u.String())
}
