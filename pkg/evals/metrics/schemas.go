// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package metrics

import "github.com/teradata-labs/skein/pkg/llm"

// Judge response types. Each is reflected into a JSON schema once at
// package init; Decode validates raw model output against the schema
// before unmarshalling.

type statementList struct {
	Statements []string `json:"statements" jsonschema_description:"Atomic statements extracted from the text"`
}

type faithfulnessVerdict struct {
	Statement string `json:"statement"`
	Reason    string `json:"reason"`
	Verdict   int    `json:"verdict" jsonschema_description:"1 if the statement is supported by the context, 0 otherwise"`
}

type faithfulnessVerdictList struct {
	Verdicts []faithfulnessVerdict `json:"verdicts"`
}

type recallClassification struct {
	Statement  string `json:"statement"`
	Reason     string `json:"reason"`
	Attributed int    `json:"attributed" jsonschema_description:"1 if the sentence is attributable to the context, 0 otherwise"`
}

type recallClassificationList struct {
	Classifications []recallClassification `json:"classifications"`
}

type entityList struct {
	Entities []string `json:"entities" jsonschema_description:"Named entities found in the text"`
}

type relevanceJudgement struct {
	Relevant  bool   `json:"relevant" jsonschema_description:"Whether the context was useful for the answer"`
	Reasoning string `json:"reasoning"`
}

type statementSupport struct {
	Statement string `json:"statement"`
	Supported bool   `json:"supported"`
}

type statementSupportList struct {
	Verdicts []statementSupport `json:"verdicts"`
}

type contextJudgement struct {
	Relevant bool               `json:"relevant" jsonschema_description:"Whether the context supports any reference statement"`
	Verdicts []statementSupport `json:"verdicts"`
}

type generatedQuestion struct {
	Question     string `json:"question"`
	Noncommittal int    `json:"noncommittal" jsonschema_description:"1 if the answer is evasive or noncommittal, 0 otherwise"`
}

type questionList struct {
	Questions []generatedQuestion `json:"questions"`
}

type claimList struct {
	Claims []string `json:"claims" jsonschema_description:"Standalone factual claims"`
}

type nliVerdict struct {
	Claim   string `json:"claim"`
	Verdict string `json:"verdict" jsonschema_description:"SUPPORTED, CONTRADICTED or NEUTRAL"`
	Reason  string `json:"reason"`
}

type nliVerdictList struct {
	Verdicts []nliVerdict `json:"verdicts"`
}

type binaryVerdict struct {
	Verdict int    `json:"verdict" jsonschema_description:"1 for pass, 0 for fail"`
	Reason  string `json:"reason"`
}

type scoredVerdict struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type rubricVerdict struct {
	Score  int    `json:"score" jsonschema_description:"The chosen rubric level"`
	Reason string `json:"reason"`
}

type goalInference struct {
	Goal string `json:"goal" jsonschema_description:"The user's goal in one sentence"`
}

type topicClassification struct {
	Turn    int    `json:"turn" jsonschema_description:"1-based AI turn number"`
	OnTopic bool   `json:"on_topic"`
	Reason  string `json:"reason"`
}

type topicClassificationList struct {
	Classifications []topicClassification `json:"classifications"`
}

var (
	statementsSchema           = llm.MustResponseSchema[statementList]("statements")
	faithfulnessVerdictsSchema = llm.MustResponseSchema[faithfulnessVerdictList]("faithfulness_verdicts")
	recallClassificationSchema = llm.MustResponseSchema[recallClassificationList]("recall_classifications")
	entitiesSchema             = llm.MustResponseSchema[entityList]("entities")
	relevanceSchema            = llm.MustResponseSchema[relevanceJudgement]("relevance_judgement")
	statementSupportSchema     = llm.MustResponseSchema[statementSupportList]("statement_support")
	contextJudgementSchema     = llm.MustResponseSchema[contextJudgement]("context_judgement")
	questionsSchema            = llm.MustResponseSchema[questionList]("generated_questions")
	claimsSchema               = llm.MustResponseSchema[claimList]("claims")
	nliVerdictsSchema          = llm.MustResponseSchema[nliVerdictList]("nli_verdicts")
	binaryVerdictSchema        = llm.MustResponseSchema[binaryVerdict]("binary_verdict")
	scoredVerdictSchema        = llm.MustResponseSchema[scoredVerdict]("scored_verdict")
	rubricVerdictSchema        = llm.MustResponseSchema[rubricVerdict]("rubric_verdict")
	goalInferenceSchema        = llm.MustResponseSchema[goalInference]("goal_inference")
	topicsSchema               = llm.MustResponseSchema[topicClassificationList]("topic_classifications")
)
