package domain

import "time"

type Activity struct {
	ID          string
	Title       string
	Description string
	Active      bool
	RewardMin   int64
	RewardRange int64
	Scratch     string
	Created     time.Time
	User        Person
}

type Reward struct {
	ID              string
	Target          Person
	User            Person
	Amount          int64
	Description     string
	RelatedActivity string
	Scratch         string
	Created         time.Time
}

type Comment struct {
	ID          string
	Parent      string
	User        Person
	Description string
	Created     time.Time
	LikeCount   int
	Replies     []Comment
}

type Donation struct {
	ID          string
	User        Person
	Target      Person
	Amount      int64
	Description string
	Created     time.Time
}

type Quote struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}
