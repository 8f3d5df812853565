package dilemma

const activityTitle = "Prisoner's Dilemma: Round %d"

const activityDescription = `Ah, prisoner's dilemma—game theory's poster-child for
understanding nuclear deterence, evolution, and life—now available as
a low-budget knock-off on Token Ibis. Learn more
[here](https://en.wikipedia.org/wiki/Prisoner%%27s_dilemma) puzzle.

### Scenario

You and another Token Ibis user have been arrested for the heist of
the century. The authorities, being fairly clever, decide to separate
the two of you to extract confessions. You have two options: keep your
mouth shut (__cooperate__ with your accomplice), or snitch
(__defect__). If you cooperate, both of you walk away unscathed. If
you snitch, then your partner takes the fall, and you walk away with
the prize all to yourself. But don't forget to consider the biggest
question: what will _they_ decide?

### Rules

* __Like__ one of %[1]s's comments below to __cooperate__ or __defect__
* If you __like__ both, %[1]s will choose one randomly
* After enough people have decided, %[1]s will choose two random players
* Depending on their decision, they will receive rewards according to
  the following matrix:

> |                            | Defect (You)   | Cooperate (You) |
> |----------------------------|----------------|-----------------|
> | __Defect (Accomplice)__    | %[2]s       | %[3]s          |
> | __Cooperate (Accomplice)__ | %[4]s          | %[5]s     |

If chosen, your final decision will be posted. So choose wisely.

### Current Participants

%[6]s
`

const noParticipants = "_No one yet_"

const activityClose = `
---

### Final Decisions

%s

@%s: __%s__%s

@%s: __%s__%s
`

const (
	defectComment    = "__DEFECT__"
	cooperateComment = "__COOPERATE__"
)

const (
	descCooperate = "Congratulations! Both of you held tight and are made out with the full prize."
	descDefect    = "Both of you are worse of the wear. But hey, at least you're not a sucker."
	descWin       = `Nice job, you "won". It's a dog-eat-dog world.`
	descLose      = "Touch luck, you took honorable path and paid the price."
)

const (
	conclusionCooperate = "Both %s and %s held firm. Hooray for cooperation!"
	conclusionDefect    = "%s and %s both defected. There's no honor among thieves."
	conclusionMixed     = "%s chose to defect, and %s got screwed. Sucks to suck."
)
