// Package vocab holds the IRIs of the vocabularies the generator writes
// into the dataset description.
package vocab

// Namespaces.
const (
	RDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSD     = "http://www.w3.org/2001/XMLSchema#"
	SD      = "http://www.w3.org/ns/sparql-service-description#"
	VOID    = "http://rdfs.org/ns/void#"
	DCTerms = "http://purl.org/dc/terms/"
)

// RDF terms.
const (
	RDFType       = RDF + "type"
	RDFLangString = RDF + "langString"
)

// XSD datatypes.
const (
	XSDString   = XSD + "string"
	XSDInteger  = XSD + "integer"
	XSDDateTime = XSD + "dateTime"
	XSDDecimal  = XSD + "decimal"
	XSDDouble   = XSD + "double"
	XSDBoolean  = XSD + "boolean"
)

// SPARQL 1.1 Service Description.
const (
	SDService           = SD + "Service"
	SDEndpoint          = SD + "endpoint"
	SDSupportedLanguage = SD + "supportedLanguage"
	SDSPARQL11Query     = SD + "SPARQL11Query"
	SDDefaultDataset    = SD + "defaultDataset"
	SDDefaultGraph      = SD + "defaultGraph"
	SDNamedGraph        = SD + "namedGraph"
	SDNamedGraphClass   = SD + "NamedGraph"
	SDName              = SD + "name"
	SDGraph             = SD + "graph"
	SDGraphClass        = SD + "Graph"
)

// VoID.
const (
	VOIDTriples = VOID + "triples"
)

// DCMI Metadata Terms.
const (
	DCTermsCreated = DCTerms + "created"
)
