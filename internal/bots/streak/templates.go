package streak

const activityTitle = "Donation Streaks"

const activityDescription = `Consistency is the key to progress. Every week, Streak Bot will
randomly select a reward recipient from everyone who has made
donations for %d or more consecutive weeks worth
%s for each week.

## Active Streaks

Congratulations to Token Ibis's most active users. Streak Bot sees and
appreciates your dedication to consistent impact.

| Weeks &nbsp; &nbsp; &nbsp; | Dollars &nbsp; &nbsp; &nbsp; | Donor &nbsp; &nbsp; &nbsp; |
|:-|:-|:-|
%s

`

const leaderboardRow = "| %d | %s | @%s |"

const rewardDescription = `Hi %s, thanks for going %d straight weeks of making an
impact in the community. Keep it up!

`
