package descriptions

// Tool descriptions with practical examples, shown to MCP clients.

const (
	ClassifyFileDescription = `Classify the Quadro III records of a health declaration PDF by CID-10 code.

**When to use:** A proposal's health declaration needs an underwriting summary: who declared what, when, and how the catalog classifies it.

**What it returns:** One row per declared condition (Segurado, Data, Descrição, CID, Classificação, Justificativa), sorted by role and then date. Descriptions scoring below 60 against every catalog entry get CID "N/A".

**Examples:**
• "Classify declaracao-joao.pdf"
• "Which conditions in proposta_123.pdf need a medical interview?"

**Common workflows:**
1. Review: cid_classify_file → check rows marked "Entrevista com um médico"
2. Audit: cid_classify_file → cid_catalog_lookup on any code listed as not classified

**Best practices:** The PDF must contain extractable text; scanned declarations produce the "Nenhum dado encontrado" warning.`

	ExportFileDescription = `Classify a health declaration PDF and save the summary as an .xlsx spreadsheet.

**When to use:** The summary has to be attached to a proposal or shared with the medical team.

**What it returns:** The path of Resumo_QuadroIII_<file>.xlsx plus the same table cid_classify_file shows. Classification cells are color coded (green Aprovado, orange Carência, red Entrevista com um médico).

**Examples:**
• "Export the CID summary of declaracao-joao.pdf"
• "Save the spreadsheet for proposta_123.pdf into the 'abril' folder"

**Best practices:** output_dir is relative to the configured output directory; no file is written when the PDF has no records.`

	MatchTextDescription = `Find the CID code whose catalog description best matches a free-text diagnosis.

**When to use:** Checking how a single description would be classified, or why a record came out as "N/A".

**What it returns:** The best code, its catalog description, the similarity score (0-100) and the classification. Scores below 60 return CID "N/A".

**Examples:**
• "What CID matches 'pressão alta'?"
• "Match 'diabetes tipo II' against the catalog"`

	CatalogLookupDescription = `Show the catalog entry of a CID code: description, classification and justification.

**When to use:** Explaining a classification in a summary, or checking whether a code is classified at all.

**Examples:**
• "Look up I10"
• "Why is E11 under Carência?"`

	ServerInfoDescription = `Get server information: directories, catalog size, classification labels, available PDFs and tools.

**When to use:** Discovering which declarations can be processed and where spreadsheets are written.`
)
