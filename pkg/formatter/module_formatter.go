// File: pkg/formatter/module_formatter.go
package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"terrable/internal/catalog"
	"terrable/internal/service"
	"terrable/pkg/storage"
)

type ModuleFormatter struct{}

func NewModuleFormatter() *ModuleFormatter {
	return &ModuleFormatter{}
}

// Render turns a command result into terminal text, choosing the layout from the result code
func (f *ModuleFormatter) Render(result service.CommandResult) string {
	switch result.Code {
	case service.CodeListedModules:
		modules, _ := result.Data["modules"].([]string)
		return f.FormatModuleList(modules)

	case service.CodeListedVersions:
		var sb strings.Builder
		if usage, ok := result.Data["bucketUsage"].(int64); ok {
			sb.WriteString(dimStyle.Render("Bucket usage: " + storage.FormatBytes(usage)))
			sb.WriteString("\n\n")
		}
		switch versions := result.Data["versions"].(type) {
		case []catalog.ModuleVersion:
			module, _ := result.Data["module"].(string)
			sb.WriteString(f.FormatVersions(module, versions))
		case map[string][]catalog.ModuleVersion:
			sb.WriteString(f.FormatAllVersions(versions))
		}
		return sb.String()

	case service.CodeListedLatestVersion:
		switch latest := result.Data["latest"].(type) {
		case catalog.ModuleVersion:
			return f.FormatLatest(latest)
		case map[string]catalog.ModuleVersion:
			return f.FormatLatestAll(latest)
		}

	case service.CodePublished:
		outcomes, _ := result.Data["modules"].([]service.ModuleOutcome)
		return f.FormatPublishOutcomes(outcomes)
	}
	return ""
}

func (f *ModuleFormatter) FormatModuleList(modules []string) string {
	if len(modules) == 0 {
		return dimStyle.Render("No modules found.")
	}

	table := NewTable([]string{"MODULE"})
	for _, m := range modules {
		table.AddRow([]string{m})
	}
	return table.String()
}

// FormatVersions lists one module's versions, oldest first
func (f *ModuleFormatter) FormatVersions(module string, versions []catalog.ModuleVersion) string {
	var sb strings.Builder
	sb.WriteString(FormatSectionTitle(nounStyle.Render(module)))
	sb.WriteString("\n")

	if len(versions) == 0 {
		sb.WriteString(dimStyle.Render("No published versions."))
		return sb.String()
	}

	table := NewTable([]string{"VERSION", "MODIFIED", "SIZE", "SOURCE"})
	for _, v := range versions {
		table.AddRow([]string{
			strconv.Itoa(v.Version),
			v.LastModified.Format(time.RFC3339),
			storage.FormatBytes(v.Size),
			v.SourceURL,
		})
	}
	sb.WriteString(table.String())
	return sb.String()
}

func (f *ModuleFormatter) FormatAllVersions(versions map[string][]catalog.ModuleVersion) string {
	if len(versions) == 0 {
		return dimStyle.Render("No modules found.")
	}

	sections := make([]string, 0, len(versions))
	for _, module := range sortedKeys(versions) {
		sections = append(sections, f.FormatVersions(module, versions[module]))
	}
	return strings.Join(sections, "\n\n")
}

// FormatLatest shows the details of a single version
func (f *ModuleFormatter) FormatLatest(v catalog.ModuleVersion) string {
	var sb strings.Builder
	sb.WriteString(FormatHeaderSection("Module: " + v.Name))
	sb.WriteString("\n\n")

	table := NewTable([]string{"Parameter", "Value"})
	details := []struct {
		Key   string
		Value string
	}{
		{"Version", strconv.Itoa(v.Version)},
		{"Key", v.Key},
		{"Size", storage.FormatBytes(v.Size)},
		{"Modified", v.LastModified.Format(time.RFC1123)},
		{"Source", v.SourceURL},
	}
	for _, d := range details {
		table.AddRow([]string{d.Key, d.Value})
	}

	sb.WriteString(table.String())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("module %q {\n  source = %q\n}", v.Name, v.SourceURL)))
	return sb.String()
}

func (f *ModuleFormatter) FormatLatestAll(latest map[string]catalog.ModuleVersion) string {
	if len(latest) == 0 {
		return dimStyle.Render("No published versions.")
	}

	table := NewTable([]string{"MODULE", "LATEST", "MODIFIED", "SOURCE"})
	for _, module := range sortedKeys(latest) {
		v := latest[module]
		table.AddRow([]string{module, strconv.Itoa(v.Version), v.LastModified.Format(time.RFC3339), v.SourceURL})
	}
	return table.String()
}

func (f *ModuleFormatter) FormatPublishOutcomes(outcomes []service.ModuleOutcome) string {
	if len(outcomes) == 0 {
		return dimStyle.Render("No module directories found.")
	}

	table := NewTable([]string{"MODULE", "STATUS", "VERSION", "DETAIL"})
	for _, o := range outcomes {
		version := ""
		if o.Version > 0 {
			version = strconv.Itoa(o.Version)
		}
		table.AddRow([]string{o.Module, string(o.Status), version, outcomeDetail(o)})
	}
	return table.String()
}

func outcomeDetail(o service.ModuleOutcome) string {
	switch o.Status {
	case service.StatusPublished:
		return o.SourceURL
	case service.StatusUnchanged:
		return "no changes since " + o.Key
	case service.StatusDryRun:
		return "would publish " + o.Key
	case service.StatusDeclined:
		return "declined"
	case service.StatusFailed:
		return o.Error
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
