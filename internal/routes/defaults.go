package routes

// Compiled-in network used when no route configuration file is supplied.

func defaultStations() []Station {
	return []Station{
		{ID: "campus", Name: "FLAME Campus", Lat: 18.525778, Lon: 73.733243},
		{ID: "bavdhan-guard-post", Name: "Bavdhan Check Post", Lat: 18.518468, Lon: 73.765785},
		{ID: "fc-road", Name: "FC Road", Lat: 18.522335, Lon: 73.843739},
		{ID: "vanaz-station", Name: "Vanaz Metro Station", Lat: 18.507034, Lon: 73.805283},
		{ID: "anand-nagar-station", Name: "Anand Nagar Metro Station", Lat: 18.509569, Lon: 73.813995},
	}
}

func defaultRoutes() []Route {
	return []Route{
		{
			ID:           "campus-fcroad",
			Name:         "Campus → FC Road",
			FromLocation: "Campus",
			ToLocation:   "FC Road",
			StopIDs:      []string{"campus", "bavdhan-guard-post", "vanaz-station", "anand-nagar-station", "fc-road"},
		},
		{
			ID:           "fcroad-campus",
			Name:         "FC Road → Campus",
			FromLocation: "FC Road",
			ToLocation:   "Campus",
			StopIDs:      []string{"fc-road", "anand-nagar-station", "vanaz-station", "bavdhan-guard-post", "campus"},
		},
		{
			ID:           "campus-bavdhan",
			Name:         "Campus → Bavdhan Guard Post",
			FromLocation: "Campus",
			ToLocation:   "Bavdhan Guard post",
			StopIDs:      []string{"campus", "bavdhan-guard-post"},
		},
		{
			ID:           "bavdhan-campus",
			Name:         "Bavdhan Guard Post → Campus",
			FromLocation: "Bavdhan Guard post",
			ToLocation:   "Campus",
			StopIDs:      []string{"bavdhan-guard-post", "campus"},
		},
	}
}
