package vocabulary

const activityTitle = "Collective Vocabulary"

const activityDescription = `Vocabulary Bot rewards users who make an impact using awesome
language skills. Every week (starting %s), if you use a new
word that Vocabulary Bot has never seen before in a donation
description, you'll have a chance to earn a reward for your
[sesquipedalian](https://www.merriam-webster.com/dictionary/sesquipedalian)
prowess.

## Vocabulary Winners

%s

## Vocabulary Words

| Word | Count |
|:-----|:------|
%s
`

const recipientLine = "* [%s](%s) — [%s](%s)"

const wordRow = "| %s&nbsp;&nbsp;&nbsp;&nbsp;| %d |"

const rewardDescription = `Hey %s, thanks for adding to Token Ibis's vocabulary by being
the first to use the word: [%s](%s).

`
