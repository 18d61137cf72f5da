package model

import "time"

// DocType is the closed set of legal document types a Chunk or ParentDocument
// can carry.
type DocType string

const (
	DocTypeConstitution        DocType = "constitution"
	DocTypeAct                 DocType = "act"
	DocTypeOrdinance           DocType = "ordinance"
	DocTypeStatutoryInstrument DocType = "statutory-instrument"
	DocTypeCaseLaw             DocType = "case-law"
	DocTypeOther               DocType = "other"
)

// AuthorityLevel ranks a ParentDocument within the legal-hierarchy ordering used
// by the synthesizer (constitution > acts > statutory instruments > case law).
type AuthorityLevel string

const (
	AuthoritySupreme    AuthorityLevel = "supreme"
	AuthorityBinding    AuthorityLevel = "binding"
	AuthorityPersuasive AuthorityLevel = "persuasive"
)

// RetrievalSource discriminates which provider produced a RetrievalResult.
type RetrievalSource string

const (
	SourceSparse RetrievalSource = "sparse"
	SourceDense  RetrievalSource = "dense"
	SourceFused  RetrievalSource = "fused"
)

// Chunk is an immutable, retrievable unit of legal text.
type Chunk struct {
	ID            string  `json:"id"`
	ParentDocID   string  `json:"parentDocId"`
	Content       string  `json:"content"`
	DocType       DocType `json:"docType"`
	SectionPath   string  `json:"sectionPath,omitempty"`
	Language      string  `json:"language"`
	Year          int     `json:"year,omitempty"`
	Chapter       string  `json:"chapter,omitempty"`
	SectionNumber string  `json:"sectionNumber,omitempty"`
}

// ParentDocument is the full document a Chunk belongs to.
type ParentDocument struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	CanonicalCitation string         `json:"canonicalCitation"`
	Authority         AuthorityLevel `json:"authority"`
	DocType           DocType        `json:"docType"`
	FullText          string         `json:"fullText"`
	SchemaVersion     int            `json:"docSchemaVersion"`
}

// RetrievalResult is a (chunk, parent handle, score, confidence, source) tuple
// produced by retrieval, prior to reranking.
type RetrievalResult struct {
	Chunk       Chunk           `json:"chunk"`
	ParentDocID string          `json:"parentDocId"`
	Score       float64         `json:"score"`
	Confidence  float64         `json:"confidence"`
	Source      RetrievalSource `json:"source"`
}

// Citation is emitted by synthesis and verified by the quality gate.
type Citation struct {
	DocKey       string  `json:"docKey"`
	Page         *int    `json:"page,omitempty"`
	SnippetRange *string `json:"snippetRange,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// BundledContextItem is one parent excerpt assembled for the synthesizer.
type BundledContextItem struct {
	ChunkID     string  `json:"chunkId"`
	ParentDocID string  `json:"parentDocId"`
	Title       string  `json:"title"`
	Excerpt     string  `json:"excerpt"`
	Confidence  float64 `json:"confidence"`
	SourceType  DocType `json:"sourceType"`
}

// Intent is the closed set of query intents the classifier may produce.
type Intent string

const (
	IntentConversational               Intent = "conversational"
	IntentRAGQA                        Intent = "rag-qa"
	IntentConstitutionalInterpretation Intent = "constitutional-interpretation"
	IntentStatutoryAnalysis            Intent = "statutory-analysis"
	IntentCaseLawResearch              Intent = "case-law-research"
	IntentProceduralInquiry            Intent = "procedural-inquiry"
	IntentRightsInquiry                Intent = "rights-inquiry"
	IntentContractAnalysis             Intent = "contract-analysis"
	IntentLegalDrafting                Intent = "legal-drafting"
	IntentSummarization                Intent = "summarization"
)

// Complexity is the closed set of query complexities.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityExpert   Complexity = "expert"
)

// UserType is the closed set of inferred user types.
type UserType string

const (
	UserCitizen      UserType = "citizen"
	UserProfessional UserType = "professional"
)

// ReasoningFramework is the closed set of named analytical schemas, selected
// deterministically from Intent by the orchestrator (frameworkFor).
type ReasoningFramework string

const (
	FrameworkIRAC                         ReasoningFramework = "IRAC"
	FrameworkStatutoryInterpretation      ReasoningFramework = "statutory-interpretation"
	FrameworkPrecedentAnalysis            ReasoningFramework = "precedent-analysis"
	FrameworkConstitutionalInterpretation ReasoningFramework = "constitutional-interpretation"
	FrameworkConversational               ReasoningFramework = "conversational"
)

// AdaptiveParams derives retrieval/rerank fan-out from Complexity.
type AdaptiveParams struct {
	RetrievalTopK int
	RerankTopK    int
}

// AdaptiveParamsFor returns the retrieval_top_k/rerank_top_k pair for a
// complexity tier per the fixed table in the classifier design.
func AdaptiveParamsFor(c Complexity) AdaptiveParams {
	switch c {
	case ComplexitySimple:
		return AdaptiveParams{RetrievalTopK: 15, RerankTopK: 5}
	case ComplexityModerate:
		return AdaptiveParams{RetrievalTopK: 25, RerankTopK: 8}
	case ComplexityComplex:
		return AdaptiveParams{RetrievalTopK: 40, RerankTopK: 12}
	case ComplexityExpert:
		return AdaptiveParams{RetrievalTopK: 50, RerankTopK: 15}
	default:
		return AdaptiveParams{RetrievalTopK: 15, RerankTopK: 5}
	}
}

// CacheTTLFor returns the complexity-dependent cache entry lifetime.
func CacheTTLFor(c Complexity) time.Duration {
	switch c {
	case ComplexitySimple:
		return 2 * time.Hour
	case ComplexityModerate:
		return 1 * time.Hour
	case ComplexityComplex:
		return 30 * time.Minute
	case ComplexityExpert:
		return 15 * time.Minute
	default:
		return 1 * time.Hour
	}
}

// SynthesisTokenBudgetFor returns the max synthesis output tokens for a
// complexity tier.
func SynthesisTokenBudgetFor(c Complexity) int {
	switch c {
	case ComplexitySimple:
		return 800
	case ComplexityModerate:
		return 2500
	case ComplexityComplex:
		return 5000
	case ComplexityExpert:
		return 8000
	default:
		return 800
	}
}

// RequestBudgetFor returns the overall wall-clock budget for a complexity tier.
func RequestBudgetFor(c Complexity) time.Duration {
	switch c {
	case ComplexitySimple:
		return 1500 * time.Millisecond
	case ComplexityModerate:
		return 3 * time.Second
	case ComplexityComplex:
		return 5 * time.Second
	case ComplexityExpert:
		return 8 * time.Second
	default:
		return 1500 * time.Millisecond
	}
}

// SynthesisMeta carries non-answer output of synthesis.
type SynthesisMeta struct {
	TLDR              string `json:"tldr"`
	RefinementApplied bool   `json:"refinementApplied,omitempty"`
	IterationCount    int    `json:"iterationCount"`
}

// CacheEntry is the full synthesized response payload cached by the semantic
// cache, keyed by (normalized query hash, user type).
type CacheEntry struct {
	Answer     string        `json:"answer"`
	Citations  []Citation    `json:"citations"`
	Confidence float64       `json:"confidence"`
	Synthesis  SynthesisMeta `json:"synthesis"`
	CachedAt   time.Time     `json:"cachedAt"`
}

// CacheMeta is the sibling record to a CacheEntry: the original query text,
// its embedding vector, and a hit count.
type CacheMeta struct {
	QueryText string    `json:"queryText"`
	Embedding []float32 `json:"embedding"`
	HitCount  int64     `json:"hitCount"`
}

// ShortTermRecord is one message in a session's sliding conversation window.
type ShortTermRecord struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// LongTermProfile is the user-scoped accumulated profile.
type LongTermProfile struct {
	UserID            string           `json:"userId"`
	QueryCount        int64            `json:"queryCount"`
	LegalAreaFreq     map[string]int64 `json:"legalAreaFreq"`
	LegalAreas        []string         `json:"legalAreas"`
	Expertise         UserType         `json:"expertise"`
	TypicalComplexity Complexity       `json:"typicalComplexity"`
	LastUpdated       time.Time        `json:"lastUpdated"`
}

// DefaultLongTermProfile returns a freshly initialized profile for a user with
// no prior history.
func DefaultLongTermProfile(userID string) LongTermProfile {
	return LongTermProfile{
		UserID:            userID,
		LegalAreaFreq:     map[string]int64{},
		Expertise:         UserCitizen,
		TypicalComplexity: ComplexitySimple,
		LastUpdated:       time.Now().UTC(),
	}
}

// TopLegalInterests returns up to n legal areas ordered by descending
// frequency.
func (p LongTermProfile) TopLegalInterests(n int) []string {
	type kv struct {
		area string
		freq int64
	}
	pairs := make([]kv, 0, len(p.LegalAreaFreq))
	for area, freq := range p.LegalAreaFreq {
		pairs = append(pairs, kv{area, freq})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].freq > pairs[j-1].freq; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.area
	}
	return out
}

// IsReturningUser reports whether the profile reflects a returning user
// (query count > 5), per the classifier's override rule.
func (p LongTermProfile) IsReturningUser() bool {
	return p.QueryCount > 5
}
