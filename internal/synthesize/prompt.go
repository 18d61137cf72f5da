package synthesize

import (
	"fmt"
	"strings"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// baseSections are required in every synthesized answer regardless of
// complexity or reasoning framework.
var baseSections = []string{"Issue", "Legal Framework", "Application", "Conclusion"}

// extendedSections are appended for complex/expert tiers, which warrant a
// deeper structured analysis.
var extendedSections = []string{"Adversarial Analysis", "Practical Implications", "Confidence Calibration"}

func sectionsFor(complexity model.Complexity) []string {
	if complexity == model.ComplexityComplex || complexity == model.ComplexityExpert {
		sections := make([]string, 0, len(baseSections)+len(extendedSections))
		sections = append(sections, baseSections...)
		sections = append(sections, extendedSections...)
		return sections
	}
	return baseSections
}

func frameworkGuidance(framework model.ReasoningFramework) string {
	switch framework {
	case model.FrameworkIRAC:
		return "Structure the Application section around Issue, Rule, Application, Conclusion (IRAC)."
	case model.FrameworkStatutoryInterpretation:
		return "Ground the analysis in the literal text of the relevant statute, then its purpose, then any applicable canons of construction."
	case model.FrameworkPrecedentAnalysis:
		return "Reason from binding precedent down to persuasive authority, noting where cases conflict or have been distinguished."
	case model.FrameworkConstitutionalInterpretation:
		return "Anchor the analysis in the constitutional text, then its values and purpose, citing constitutional provisions first."
	case model.FrameworkConversational:
		return "Keep the tone conversational and brief; formal section headers may be abbreviated."
	default:
		return ""
	}
}

// buildSystemPrompt assembles the grounding contract: absolute grounding in
// the supplied context, cite-then-state order, legal-hierarchy authority
// resolution, and the structured sections required for this complexity tier.
func buildSystemPrompt(complexity model.Complexity, framework model.ReasoningFramework, userType model.UserType) string {
	var b strings.Builder
	b.WriteString("You are a legal-research assistant answering questions about Zimbabwean law. ")
	b.WriteString("Ground every legal statement ABSOLUTELY in the provided context; never assert a legal ")
	b.WriteString("proposition that is not supported by one of the excerpts given to you. For every substantive ")
	b.WriteString("statement, cite the source first (using its citation key in brackets, e.g. [doc-key]) and then ")
	b.WriteString("state the proposition — cite-then-state order, every time.\n\n")
	b.WriteString("When sources conflict, resolve authority in this order: the Constitution outranks Acts of ")
	b.WriteString("Parliament, which outrank Statutory Instruments, which outrank case law; within case law, ")
	b.WriteString("rank by court: Constitutional Court and Supreme Court binding, High Court persuasive unless ")
	b.WriteString("on point and unchallenged.\n\n")

	sections := sectionsFor(complexity)
	b.WriteString("Structure your answer with these sections, in order: ")
	b.WriteString(strings.Join(sections, ", "))
	b.WriteString(".\n\n")

	if guidance := frameworkGuidance(framework); guidance != "" {
		b.WriteString(guidance)
		b.WriteString("\n\n")
	}

	if userType == model.UserCitizen {
		b.WriteString("The reader is a member of the public, not a lawyer: avoid unexplained jargon and define ")
		b.WriteString("legal terms the first time you use them.\n\n")
	} else {
		b.WriteString("The reader is a legal professional: you may use standard legal terminology without ")
		b.WriteString("definition.\n\n")
	}

	b.WriteString("End with a one-sentence TL;DR prefixed exactly \"TL;DR:\".")
	return b.String()
}

// buildContextBlock lists each parent excerpt with its citation key,
// authority-bearing doc type, and confidence, so the model can ground and
// cite against it directly.
func buildContextBlock(context []model.BundledContextItem) string {
	var b strings.Builder
	b.WriteString("Context excerpts:\n")
	for _, item := range context {
		fmt.Fprintf(&b, "[%s] %s (%s, confidence %.2f)\n%s\n\n", item.ParentDocID, item.Title, item.SourceType, item.Confidence, item.Excerpt)
	}
	return b.String()
}

// buildUserPrompt composes the context block, a recent-turns hint, and the
// rewritten query into the single prompt handed to the large model.
func buildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(buildContextBlock(req.BundledContext))

	if len(req.ShortTermContext) > 0 {
		turns := req.ShortTermContext
		// Each exchange is a user record plus an assistant record.
		if len(turns) > 2*priorTurnLimit {
			turns = turns[len(turns)-2*priorTurnLimit:]
		}
		b.WriteString("Recent conversation:\n")
		for _, turn := range turns {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", req.RewrittenQuery)
	return b.String()
}
