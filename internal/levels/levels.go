// Package levels defines the four scripted scenarios of the game.
//
// The progression is a closed enumeration: a fixed ordered list of immutable
// records. Nothing mutates level definitions at runtime, so there is no
// dynamic registry.
package levels

import "github.com/couragelab/standtall/internal/models"

var all = []models.LevelConfig{
	{
		ID:        "airport",
		Title:     "Level 1: The Check-In Counter",
		Subtitle:  "Flight to Kilimanjaro",
		Scenario:  "You are at a busy airport check-in counter. Your connecting flight to Kilimanjaro (JRO) is tight and the agent is rushing you through. You need to be sure your luggage is checked all the way through, but the agent keeps deflecting your questions.",
		Objective: "Get a clear, explicit confirmation that your luggage is checked through to JRO, without backing down or apologizing for asking.",
		PanicPhrases: []string{
			"I need you to confirm where my luggage is checked to.",
			"Before I walk away, is my bag tagged to JRO?",
			"Please check the tag again. This matters to me.",
		},
		OpeningLine: "Next! Passport and ticket. Quickly please, there's a line behind you.",
	},
	{
		ID:        "cafe",
		Title:     "Level 2: The Wrong Order",
		Subtitle:  "Cold soup, full price",
		Scenario:  "A waiter has brought you the wrong dish, and it is cold. The waiter is friendly but dismissive and acts as if sending food back is an enormous inconvenience. You are hungry and you paid for what you actually ordered.",
		Objective: "Have the wrong dish taken back and your actual order brought out, staying polite but firm and without accepting the mistake as your problem.",
		PanicPhrases: []string{
			"This is not what I ordered.",
			"I'd like the dish I ordered, please.",
			"I understand the kitchen is busy, and I still want my order corrected.",
		},
		OpeningLine: "Here you go! One soup of the day. Enjoy! ...Is something wrong?",
	},
	{
		ID:        "office",
		Title:     "Level 3: The Friday Favor",
		Subtitle:  "Not your deadline",
		Scenario:  "It is 4:45pm on Friday. A senior colleague drops a stack of their own overdue work on your desk and 'asks' you to finish it over the weekend, implying your next review depends on being a team player. You have plans and this is not your responsibility.",
		Objective: "Decline the weekend work clearly, without over-explaining, apologizing repeatedly, or leaving a loophole they can push through.",
		PanicPhrases: []string{
			"No, I won't be able to take this on this weekend.",
			"This isn't work I can absorb on top of my own.",
			"I hear that it's urgent, and my answer is still no.",
		},
		OpeningLine: "Heeey, glad I caught you! Listen, tiny favor — I need these reports done by Monday morning. You're the only one I trust with this.",
	},
	{
		ID:        "landlord",
		Title:     "Level 4: The Deposit",
		Subtitle:  "Boss fight",
		Scenario:  "You moved out three weeks ago, left the apartment spotless, and your former landlord is still 'processing' your deposit. On the phone they cycle between vague promises, invented deductions, and guilt-tripping. The law is on your side.",
		Objective: "Get a concrete commitment: the full deposit, a specific amount, by a specific date — or state plainly what you will do next if it doesn't arrive.",
		PanicPhrases: []string{
			"The full deposit is owed to me. When exactly will you transfer it?",
			"Name the date. I am writing it down.",
			"If it hasn't arrived by Friday, I will file with the tenancy board.",
		},
		OpeningLine: "Oh, it's you again. Look, these things take time, there were some... wear-and-tear issues we're still assessing.",
	},
}

// All returns the ordered list of level configurations.
func All() []models.LevelConfig {
	return all
}

// Count returns the number of levels in the progression.
func Count() int {
	return len(all)
}

// Get returns the level at the given index, or nil if the index is out of range.
func Get(index int) *models.LevelConfig {
	if index < 0 || index >= len(all) {
		return nil
	}
	return &all[index]
}

// IsLast reports whether the given index is the final level.
func IsLast(index int) bool {
	return index == len(all)-1
}
