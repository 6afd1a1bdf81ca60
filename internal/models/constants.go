package models

const (
	// CountRegex matches "how many"/"ile" questions followed by a type word
	CountRegex = `(how many|ile) (is |are |jest |mam )?([\p{L}\p{M}\p{N}_]+)`
	// AreaRegex matches the Polish "powierzchnia ..." surface area phrasing
	AreaRegex        = `powierzchni[\p{L}\p{M}\p{N}_]* ([\p{L}\p{M}\p{N}_]+)`
	ContextSeparator = "\n---\n"
	ChunkJoiner      = "\n\n"
	EnglishMarker    = "how many"
)

// answer templates
const (
	StoreysEN       = "The building has %d storeys: %s."
	StoreysPL       = "Budynek ma %d pięter: %s."
	CountEN         = "There are %d %s in the model."
	CountPL         = "W modelu jest %d %s."
	AreaPL          = "Powierzchnia wszystkich obiektów typu %s wynosi %.2f m²."
	UnknownAreaType = "Nie znam typu '%s' do obliczenia powierzchni."
)

// generation failure messages, formatted with the provider name
const (
	ParseFailureTemplate   = "Nie udało się sparsować odpowiedzi %s."
	HTTPErrorTemplate      = "%s API error %d: %s"
	TransportErrorTemplate = "%s API error: %v"
)

var (
	ContextPromptTemplate = "Context:\n%s\n\nQuestion: %s\nAnswer:"
)
