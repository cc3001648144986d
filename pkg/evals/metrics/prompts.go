// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

// Prompt templates for the judge steps. Templates use {{.name}} holes
// rendered through pkg/prompts; metrics never concatenate sample content
// into a prompt directly.

const generateStatementsTemplate = `Given a question and an answer, break the answer down into one or more fully
understandable, atomic statements. Each statement must be self-contained:
resolve pronouns so no statement depends on another to be understood.

Question: {{.user_input}}

Answer: {{.response}}

Return a JSON object with a "statements" array of strings.`

const evaluateFaithfulnessTemplate = `Your task is to judge the faithfulness of a series of statements based on the
given context. For each statement, return verdict 1 if the statement can be
directly inferred from the context, or verdict 0 if it cannot.

Context:
{{.contexts}}

Statements:
{{.statements}}

Return a JSON object with a "verdicts" array. Each element has "statement",
"reason" and "verdict" (1 or 0).`

const classifyReferenceStatementsTemplate = `Given a question, a context, and a reference answer, analyze each sentence of
the reference answer and classify whether the sentence can be attributed to the
given context or not. Use 1 for attributed and 0 for not attributed.

Question: {{.user_input}}

Context:
{{.contexts}}

Reference answer: {{.reference}}

Return a JSON object with a "classifications" array. Each element has
"statement", "reason" and "attributed" (1 or 0).`

const extractEntitiesTemplate = `Extract all named entities from the given text: people, organizations,
locations, dates, products, events and other proper nouns or domain terms.

Text:
{{.text}}

Return a JSON object with an "entities" array of strings.`

const contextPrecisionReferenceTemplate = `Given a question, a reference answer, and a retrieved context, verify whether
the context was useful in arriving at the reference answer.

Question: {{.user_input}}

Reference answer: {{.reference}}

Context:
{{.context}}

Return a JSON object with "relevant" (true or false) and "reasoning".`

const contextPrecisionResponseTemplate = `Given a question, an answer, and a retrieved context, verify whether the
context was useful in arriving at the given answer.

Question: {{.user_input}}

Answer: {{.response}}

Context:
{{.context}}

Return a JSON object with "relevant" (true or false) and "reasoning".`

const noiseContextJudgementTemplate = `You are given a retrieved context, the statements of a reference answer, and
the statements of a generated answer.

First decide whether the context supports at least one of the reference
statements ("relevant": true or false). Then, for each generated-answer
statement, decide whether it can be inferred from the context ("supported":
true or false).

Context:
{{.context}}

Reference statements:
{{.reference_statements}}

Answer statements:
{{.response_statements}}

Return a JSON object with "relevant" and a "verdicts" array of
{"statement", "supported"} objects, one per answer statement in order.`

const checkAgainstReferenceTemplate = `For each of the following statements, decide whether it is consistent with the
reference answer. A statement that contradicts the reference, or asserts
something the reference rules out, is not supported.

Reference answer: {{.reference}}

Statements:
{{.statements}}

Return a JSON object with a "verdicts" array of {"statement", "supported"}
objects, one per statement in order.`

const generateQuestionsTemplate = `Generate {{.count}} questions for the given answer, as if the answer were the
reply to each question. For each question, flag "noncommittal" with 1 if the
answer is evasive, vague or non-committal (for example "I don't know"), and 0
otherwise.

Answer: {{.response}}

Return a JSON object with a "questions" array. Each element has "question" and
"noncommittal" (1 or 0).`

const decomposeClaimsTemplate = `Decompose the following text into standalone factual claims. Each claim must
be verifiable on its own, with pronouns resolved.

Text:
{{.text}}

Return a JSON object with a "claims" array of strings.`

const verifyClaimsNLITemplate = `For each claim, decide its relationship to the premise text:
SUPPORTED if the premise entails the claim, CONTRADICTED if the premise
contradicts it, NEUTRAL if the premise neither supports nor contradicts it.

Premise:
{{.premise}}

Claims:
{{.claims}}

Return a JSON object with a "verdicts" array. Each element has "claim",
"verdict" (SUPPORTED, CONTRADICTED or NEUTRAL) and "reason".`

const aspectCriticTemplate = `Evaluate the submission against the given criterion. Return verdict 1 if the
submission meets the criterion and 0 otherwise.

Criterion: {{.definition}}

Question: {{.user_input}}

Submission: {{.response}}

Return a JSON object with "verdict" (1 or 0) and "reason".`

const simpleCriteriaTemplate = `Score the submission against the given criterion on a scale from
{{.min_score}} to {{.max_score}}.

Criterion: {{.definition}}

Question: {{.user_input}}

Submission: {{.response}}
{{.reference_block}}
Return a JSON object with "score" (a number) and "reason".`

const rubricsTemplate = `Judge the submission against the rubric below and pick the single score level
that fits best.

Rubric:
{{.rubrics}}

Question: {{.user_input}}

Submission: {{.response}}
{{.reference_block}}
Return a JSON object with "score" (the chosen level as an integer) and
"reason".`

const goalAccuracyWithReferenceTemplate = `Given a conversation between a user and an AI agent, and the user's intended
goal, judge whether the end state of the conversation achieves that goal.
Return verdict 1 for achieved and 0 for not achieved.

Goal: {{.reference}}

Conversation:
{{.conversation}}

Return a JSON object with "verdict" (1 or 0) and "reason".`

const inferGoalTemplate = `Given a conversation between a user and an AI agent, state the user's goal in
one concise sentence.

Conversation:
{{.conversation}}

Return a JSON object with a "goal" string.`

const topicAdherenceTemplate = `You are given a list of allowed topics and the AI turns of a conversation.
For each AI turn, decide whether it stays within the allowed topics.

Allowed topics:
{{.topics}}

AI turns:
{{.turns}}

Return a JSON object with a "classifications" array. Each element has "turn"
(the 1-based turn number), "on_topic" (true or false) and "reason".`
