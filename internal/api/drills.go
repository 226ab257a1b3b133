package api

import (
	"math/rand/v2"
	"net/http"
)

// ReadingParagraph is one fixed-text reading drill.
type ReadingParagraph struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// TopicPrompt is one impromptu-speaking drill.
type TopicPrompt struct {
	Topic  string `json:"topic"`
	Prompt string `json:"prompt"`
}

// Reading drills give the speaker a known text so the analysis isolates
// delivery from content.
var readingParagraphs = []ReadingParagraph{
	{
		Title: "Lighthouses",
		Text: "For centuries, lighthouses stood as the only warning between sailors and the rocks beneath the waves. " +
			"Their keepers climbed the same spiral stairs every evening to light a flame that strangers miles away depended on. " +
			"Most keepers never met the people they saved, and the ships that passed safely left no record of the disaster that did not happen. " +
			"It is strange to think that the best measure of their work was silence.",
	},
	{
		Title: "The Honeybee's Map",
		Text: "When a honeybee finds a rich patch of flowers, it returns to the hive and dances. " +
			"The angle of the dance points toward the food, and its duration tells the distance. " +
			"Other bees read this choreography in complete darkness, translating movement into a map they have never seen. " +
			"A colony can weigh a thousand such reports in a single afternoon and shift its entire workforce by consensus.",
	},
	{
		Title: "Paper Before Print",
		Text: "Before printing presses, every book in Europe was copied by hand, letter by letter, by scribes who sometimes worked on a single volume for a year. " +
			"A misplaced stroke could change a word's meaning for every future copy made from that manuscript. " +
			"Readers learned to compare versions the way detectives compare testimony, hunting for the sentence closest to what the author once wrote.",
	},
	{
		Title: "Desert Rainfall",
		Text: "Rain in the desert does not soak in; it arrives all at once and moves fast. " +
			"A dry canyon can fill with a wall of water from a storm too far away to hear. " +
			"Desert plants have adapted by waiting, sometimes for years, holding their seeds until a single wet week lets them sprint through an entire lifecycle. " +
			"Patience, in that landscape, is not a virtue but a survival strategy.",
	},
	{
		Title: "The Sound of Rooms",
		Text: "Close your eyes in an unfamiliar building and you can still sense the size of the room around you. " +
			"Every space has a voice: the sharp reply of tile, the soft swallow of curtains, the long patience of a stairwell. " +
			"Recording engineers spend careers learning to hear what a room adds to a sound, and architects increasingly design for the ear as deliberately as for the eye.",
	},
	{
		Title: "Slow Bridges",
		Text: "Some of the oldest bridges still carrying traffic were built by people who never saw a load calculation. " +
			"They over-built instead, stacking stone until failure seemed unimaginable, and many of their guesses have now held for five hundred years. " +
			"Modern engineering replaced that caution with precision, trading thick arches for thin steel, and the bridges grew longer, lighter, and far less forgiving of surprise.",
	},
}

// Topic drills prompt unscripted speech for pacing and filler-word practice.
var topicPrompts = []TopicPrompt{
	{
		Topic:  "Advice you ignored and later regretted",
		Prompt: "Tell us about a piece of advice someone gave you that you brushed off at the time. What happened, and when did you realize they were right?",
	},
	{
		Topic:  "A small habit with an outsized effect",
		Prompt: "Describe one small routine or habit that changed more in your life than you expected. How did you stumble onto it?",
	},
	{
		Topic:  "The best teacher you ever had",
		Prompt: "Talk about a teacher, coach, or mentor who actually changed how you think. What did they do differently from everyone else?",
	},
	{
		Topic:  "Something everyone seems to love that you don't",
		Prompt: "Pick something wildly popular that has never clicked for you. Make your case honestly without dismissing the people who enjoy it.",
	},
	{
		Topic:  "A decision you would make differently today",
		Prompt: "Revisit a real decision from your past with what you know now. What would you change, and what would you keep exactly the same?",
	},
	{
		Topic:  "The next skill you want to learn",
		Prompt: "What skill is next on your list, and why that one? Explain what has stopped you so far and how you plan to start.",
	},
}

func (s *Server) handleRandomParagraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, readingParagraphs[rand.IntN(len(readingParagraphs))])
}

func (s *Server) handleRandomTopic(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, topicPrompts[rand.IntN(len(topicPrompts))])
}
