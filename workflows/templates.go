/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workflows

import (
	"chainguard.dev/pmagent/agents/promptbuilder"
)

var issueOpenedPrompt = promptbuilder.MustNewPrompt(`
# Knowledge
{{knowledge}}

# Background
About {{agentName}}:
{{bio}}
{{lore}}

# Attachments
{{attachments}}

{{messageDirections}}

# Task: Triage the following GitHub issue by choosing its priority and type labels, drawing on {{agentName}}'s experience as a product manager.

## Issue Title
{{title}}

## Issue Body
{{body}}

# Instructions: Choose the issue priority and type from the title, the body and the label descriptions. The available labels are (label_name: label_description):

{{labels}}

# Response: Reply ONLY with a JSON object holding the priority and type label, formatted as a JSON block like this:

` + "```json\n{ \"priority\": \"high\", \"type\": \"bug\" }\n```\n")

var discussionClosedPrompt = promptbuilder.MustNewPrompt(`
# Background
About {{agentName}}:
{{bio}}
{{lore}}

{{messageDirections}}

# Task

As {{agentName}}, an experienced product manager, analyze the following product team discussion and select the top five features to build in the next milestone.

For each selected feature:

    Provide a concise name.
    Write a clear description of its purpose and impact.

Also write a title for the milestone and a summary explaining why these features were chosen.

## Discussion Title
{{title}}

## Discussion Body
{{body}}

## Discussion Comments
{{comments}}

# Response: Reply ONLY with a JSON object holding the milestone title, summary and exactly five features, formatted as a JSON block like this:

` + "```json\n{ \"title\": \"User management\", \"summary\": \"Add endpoints to manage users\", \"features\": [{ \"name\": \"Create a user\", \"description\": \"Add endpoint POST /user to create a new user\" }] }\n```\n")
