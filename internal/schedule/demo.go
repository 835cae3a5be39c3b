package schedule

// DemoSlots returns the sample week used when the service runs in demo mode:
// six slots spread Monday to Friday, three of them held by the demo teams.
func DemoSlots(week Week) []IceSlot {
	days := week.Days()
	date := func(i int) string { return FormatDate(days[i]) }
	prefix := "demo-" + week.String() + "-"
	return []IceSlot{
		{ID: prefix + "1", Date: date(0), StartTime: "18:00", EndTime: "19:30", Type: Practice, IsAssigned: true, TeamID: "1", TeamName: "Mighty Ducks", Source: SourceSeed},
		{ID: prefix + "2", Date: date(0), StartTime: "20:00", EndTime: "21:30", Type: Game, Source: SourceSeed},
		{ID: prefix + "3", Date: date(1), StartTime: "19:00", EndTime: "20:30", Type: Practice, IsAssigned: true, TeamID: "2", TeamName: "Ice Hawks", Source: SourceSeed},
		{ID: prefix + "4", Date: date(2), StartTime: "18:30", EndTime: "20:00", Type: Game, Source: SourceSeed},
		{ID: prefix + "5", Date: date(3), StartTime: "17:00", EndTime: "18:30", Type: Practice, Source: SourceSeed},
		{ID: prefix + "6", Date: date(4), StartTime: "19:30", EndTime: "21:00", Type: Game, IsAssigned: true, TeamID: "3", TeamName: "Storm Riders", Source: SourceSeed},
	}
}
