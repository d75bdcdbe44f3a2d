package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for genre documents.
//
// Names use English stemming so "shoegazing" finds "Shoegaze". Alternate
// names use the simple analyzer: they are often slang or abbreviations
// ("Alt-Rock", "IDM") that stemming would mangle.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	subtitleFieldMapping := bleve.NewTextFieldMapping()
	subtitleFieldMapping.Analyzer = en.AnalyzerName
	subtitleFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("subtitle", subtitleFieldMapping)

	akasFieldMapping := bleve.NewTextFieldMapping()
	akasFieldMapping.Analyzer = simple.Name
	akasFieldMapping.Store = true
	akasFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("akas", akasFieldMapping)

	// Description - searchable but not stored (too large)
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	typeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Parent ids - for "children of" filtering
	parentsFieldMapping := bleve.NewTextFieldMapping()
	parentsFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("parents", parentsFieldMapping)

	nsfwFieldMapping := bleve.NewBooleanFieldMapping()
	docMapping.AddFieldMappingsAt("nsfw", nsfwFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	relevanceFieldMapping := bleve.NewNumericFieldMapping()
	relevanceFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("relevance", relevanceFieldMapping)

	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
