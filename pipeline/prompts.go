package pipeline

import (
	"fmt"
	"strings"
)

// Prompt builders for pipeline stages. Structured outputs ask for strict
// JSON; the responses still go through lenient extraction because the
// generation service makes no formatting guarantees.

func intentPrompt(request string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Extract topic, number of lessons, and student age from: %q.
Return JSON: {"topic": "...", "num_lessons": 3, "age": 16}
Default num_lessons to 1 if not specified.
Default age to 16 if not specified.
Age should be between 14 and 18.
`, request))
}

func planPrompt(topic string, numLessons int) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are an expert teacher creating educational content.
Create a comprehensive %d-lesson unit plan on: %q.

Return STRICT JSON matching this schema:
{
  "unit_title": "Title of the whole unit",
  "lessons": [
    {
      "lesson_number": 1,
      "title": "Concrete Topic Name",
      "research_topics": ["Topic 1", "Topic 2"]
    }
  ]
}

Requirements:
- EXACTLY %d lessons, numbered sequentially
- Lesson titles must be concrete and factual
- Research topics must be specific: include dates, full names, and proper
  nouns (e.g. "Korean War 1950-1953", not "Korean Peninsula") so an
  encyclopedia lookup will find a matching article
`, numLessons, topic, numLessons))
}

func draftPrompt(lessonName, evidence, previousContent string, sections int) string {
	previousBlock := ""
	if previousContent != "" {
		previousBlock = fmt.Sprintf(`
CONTEXT FROM PREVIOUS LESSONS:
%s

The above content was already covered. Do NOT repeat these topics or
facts; introduce NEW information and build on them only for continuity.

`, previousContent)
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are an expert teacher writing a comprehensive teacher's guide for: %q.
The guide accompanies a %d-slide presentation and must contain all the
detail the teacher needs, written as continuous flowing text.
%s
Structural requirements:
1. Write in continuous paragraphs, not bullet points
2. Organize the content into EXACTLY %d sections, one per slide,
   separated by blank lines
3. Each section is 3-5 sentences expanding one key concept
4. Start each section with a topic sentence usable as a slide title
5. Base everything on the evidence below; cite specific dates, figures
   and locations where relevant

EVIDENCE:
%s
`, lessonName, sections, previousBlock, sections, evidence))
}

func revisionPrompt(lessonName, verdict, evidence string, sections int) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are revising educational content based on fact-checker feedback.

LESSON: %s

FACT CHECKER FEEDBACK:
%s

AVAILABLE EVIDENCE (USE ONLY THIS):
%s

Rewrite the teacher's guide for this lesson, addressing ALL warnings
from the fact checker. Rules:
1. Use ONLY information from the provided evidence
2. Remove or correct any unsupported claims named in the warnings
3. Stay strictly on the lesson topic: %s
4. Keep the %d-section structure, sections separated by blank lines
5. Write in continuous paragraphs of 3-5 sentences each
`, lessonName, verdict, evidence, lessonName, sections))
}

func slidePrompt(lessonName, draft string, target int, previousTitles []string) string {
	previousBlock := ""
	if len(previousTitles) > 0 {
		var lines strings.Builder
		for _, t := range previousTitles {
			lines.WriteString("- " + t + "\n")
		}
		previousBlock = fmt.Sprintf(`
SLIDE TITLES FROM PREVIOUS LESSONS:
%s
Avoid slides with similar titles or covering the same topics.

`, lines.String())
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are an instructional designer. Create a slide structure for: %q.
Target length: EXACTLY %d slides, one per section of the teacher's guide,
in the guide's order.
%s
Return STRICT JSON:
{
  "slides": [
    {"title": "Slide Title", "bullets": ["Keyword", "Date", "Short phrase"], "is_question": false}
  ]
}

Rules:
1. Extract each section's topic sentence as the slide title
2. Convert key facts into 2-4 bullets of keywords, dates, names or
   phrases of at most 6 words; no complete sentences except on question
   slides
3. Include EXACTLY 2 question slides, at positions 10 and 20, each with
   is_question true and a single thought-provoking question as its bullet

TEACHER'S GUIDE:
%s
`, lessonName, target, previousBlock, draft))
}

func factCheckPrompt(draft, evidence string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are a strict fact-checking agent. Evaluate whether the TEXT TO CHECK
is supported by the EVIDENCE.

Rules:
- Use ONLY the evidence; anything not in the evidence is unsupported.
- Paraphrase and reasonable educational expansion are acceptable; only a
  direct contradiction or a major unsupported claim warrants NO-GO.
- Be concise.
- Output format EXACTLY:
GO/NO-GO: <GO|NO-GO>
Confidence: <High|Medium|Low>
Reason: <one sentence>
Warnings: <specific unsupported or irrelevant content, or None>

EVIDENCE:
%s

TEXT TO CHECK:
%s
`, evidence, draft))
}
