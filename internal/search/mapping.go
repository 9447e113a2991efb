package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for book documents.
//
// Titles and descriptions use English stemming. Authors and category names
// use the simple analyzer so names are not stemmed. Category slugs are
// keywords for exact filtering and faceting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = simple.Name
	authorField.Store = true
	authorField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author", authorField)

	categoriesField := bleve.NewTextFieldMapping()
	categoriesField.Analyzer = simple.Name
	categoriesField.Store = true
	docMapping.AddFieldMappingsAt("categories", categoriesField)

	// Searchable, not stored.
	descField := bleve.NewTextFieldMapping()
	descField.Analyzer = en.AnalyzerName
	descField.Store = false
	docMapping.AddFieldMappingsAt("description", descField)

	slugField := bleve.NewTextFieldMapping()
	slugField.Analyzer = keyword.Name
	slugField.Store = true
	docMapping.AddFieldMappingsAt("category_slugs", slugField)

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idField)

	availableField := bleve.NewBooleanFieldMapping()
	availableField.Store = true
	docMapping.AddFieldMappingsAt("available", availableField)

	yearField := bleve.NewNumericFieldMapping()
	yearField.Store = true
	docMapping.AddFieldMappingsAt("published_year", yearField)

	createdField := bleve.NewNumericFieldMapping()
	createdField.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
